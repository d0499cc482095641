package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/core/service"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Config controls handler behavior.
type Config struct {
	// SessionTTL is the lifetime of sessions created by /login and
	// /submit-info. Zero uses the session store default.
	SessionTTL time.Duration

	// CookieSecure adds the Secure attribute to the session cookie.
	CookieSecure bool

	// RequireAuth gates the peer routes behind a valid session.
	RequireAuth bool
}

// Services are the owned registries the handlers operate on.
type Services struct {
	Sessions    *service.SessionStore
	Directory   *service.Directory
	Relay       *service.Relay
	Credentials *service.CredentialService
}

// Handler serves the peerhub routes.
type Handler struct {
	sessions *service.SessionStore
	dir      *service.Directory
	relay    *service.Relay
	creds    *service.CredentialService
	metrics  *metric.Registry
	cfg      Config
	logger   logger.Logger
	started  time.Time
}

// New creates a Handler. metrics may be nil, in which case /metrics is not
// routed.
func New(svc Services, cfg Config, metrics *metric.Registry, l logger.Logger) *Handler {
	if l == nil {
		l = logger.Discard()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = svc.Sessions.TTL()
	}
	return &Handler{
		sessions: svc.Sessions,
		dir:      svc.Directory,
		relay:    svc.Relay,
		creds:    svc.Credentials,
		metrics:  metrics,
		cfg:      cfg,
		logger:   l,
		started:  time.Now(),
	}
}

// Routes returns the route table.
func (h *Handler) Routes() []httpserver.Route {
	peer := func(fn httpserver.HandlerFunc) httpserver.HandlerFunc {
		if h.cfg.RequireAuth {
			return httpserver.RequireSession()(fn)
		}
		return fn
	}

	routes := []httpserver.Route{
		// Auth
		{Method: http.MethodGet, Path: "/login", Handler: h.handleLoginForm},
		{Method: http.MethodPost, Path: "/login", Handler: h.handleLogin},
		{Method: http.MethodPost, Path: "/logout", Handler: h.handleLogout},
		{Method: http.MethodGet, Path: "/protected", Handler: h.handleProtected},
		{Method: http.MethodGet, Path: "/", Handler: h.handleIndex},
		{Method: http.MethodGet, Path: "/index", Handler: h.handleIndex},
		{Method: http.MethodGet, Path: "/index.html", Handler: h.handleIndex},
		{Method: http.MethodGet, Path: "/submit-info", Handler: h.handleSubmitInfo},
		{Method: http.MethodPost, Path: "/submit-info", Handler: h.handleSubmitInfo},

		// Peer directory and relay
		{Method: http.MethodPost, Path: "/add-list", Handler: peer(h.handleAddList)},
		{Method: http.MethodGet, Path: "/get-list", Handler: peer(h.handleGetList)},
		{Method: http.MethodPost, Path: "/connect-peer", Handler: peer(h.handleConnectPeer)},
		{Method: http.MethodPost, Path: "/broadcast-peer", Handler: peer(h.handleBroadcastPeer)},
		{Method: http.MethodPost, Path: "/send-peer", Handler: peer(h.handleSendPeer)},

		// Ops
		{Method: http.MethodGet, Path: "/health", Handler: h.handleHealth},
	}
	if h.metrics != nil {
		routes = append(routes, httpserver.Route{Method: http.MethodGet, Path: "/metrics", Handler: h.handleMetrics})
	}
	return routes
}

// sessionCookie renders the Set-Cookie value for tok.
func (h *Handler) sessionCookie(tok string, maxAge int) string {
	c := fmt.Sprintf("%s=%s; HttpOnly; Path=/; Max-Age=%d", domain.SessionCookieName, tok, maxAge)
	if h.cfg.CookieSecure {
		c += "; Secure"
	}
	return c
}

// startSession creates a session for username and attaches its cookie to
// resp.
func (h *Handler) startSession(resp *httpserver.Response, username string) (*httpserver.Response, error) {
	tok, err := h.sessions.Create(username, h.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return resp.AddHeader("Set-Cookie", h.sessionCookie(tok, int(h.cfg.SessionTTL.Seconds()))), nil
}

// serviceError converts a service error into a response, logging the
// ones that map to 5xx.
func serviceError(req *httpserver.Request, err error) *httpserver.Response {
	resp := httpserver.ErrorResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		logger.L(req.Context()).Error("request failed", "route", req.Route, "error", err)
	}
	return resp
}

func badRequest(msg string) *httpserver.Response {
	return httpserver.Text(http.StatusBadRequest, msg)
}
