package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// handleLogin handles POST /login.
func (h *Handler) handleLogin(req *httpserver.Request) *httpserver.Response {
	form, err := req.Form()
	if err != nil {
		return httpserver.ErrorResponse(err)
	}
	username, password := form.Get("username"), form.Get("password")

	if err := h.creds.Verify(req.Context(), username, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logger.L(req.Context()).Warn("login failed", "username", username)
			return httpserver.HTML(http.StatusUnauthorized, invalidLogin)
		}
		return serviceError(req, err)
	}

	resp, err := h.startSession(httpserver.HTML(http.StatusOK, indexPage(username)), username)
	if err != nil {
		return serviceError(req, err)
	}
	logger.L(req.Context()).Info("login succeeded", "username", username)
	return resp
}

// handleLogout handles POST /logout. Logging out without a session is a
// no-op that still clears the cookie.
func (h *Handler) handleLogout(req *httpserver.Request) *httpserver.Response {
	if req.SessionID != "" {
		h.sessions.Destroy(req.SessionID)
	}
	return httpserver.HTML(http.StatusOK, loggedOutPage).
		AddHeader("Set-Cookie", h.sessionCookie("", 0))
}

// handleProtected handles GET /protected.
func (h *Handler) handleProtected(req *httpserver.Request) *httpserver.Response {
	if !req.Authenticated {
		return httpserver.HTML(http.StatusUnauthorized, unauthorizedPage)
	}
	return httpserver.HTML(http.StatusOK, protectedPage)
}

// handleIndex handles GET /, /index and /index.html.
func (h *Handler) handleIndex(req *httpserver.Request) *httpserver.Response {
	if !req.Authenticated {
		return httpserver.HTML(http.StatusUnauthorized, loginRequired)
	}
	return httpserver.HTML(http.StatusOK, indexPage(req.User))
}

// handleSubmitInfo handles GET and POST /submit-info. A GET without
// credentials in the query returns the registration form.
func (h *Handler) handleLoginForm(*httpserver.Request) *httpserver.Response {
	return httpserver.HTML(http.StatusOK, loginForm)
}

func (h *Handler) handleSubmitInfo(req *httpserver.Request) *httpserver.Response {
	if req.Method == http.MethodGet && !req.Query.Has("username") && !req.Query.Has("password") {
		return httpserver.HTML(http.StatusOK, submitInfoForm)
	}

	form, err := req.Form()
	if err != nil {
		return httpserver.ErrorResponse(err)
	}
	username, password := form.Get("username"), form.Get("password")
	if username == "" || password == "" {
		return httpserver.HTML(http.StatusBadRequest, missingFields)
	}

	if _, err := h.creds.Register(req.Context(), username, password); err != nil {
		switch {
		case errors.Is(err, domain.ErrCredentialConflict):
			return httpserver.HTML(http.StatusConflict, conflictPage(username))
		case errors.Is(err, domain.ErrCredentialValidation):
			return httpserver.ErrorResponse(err)
		}
		return serviceError(req, err)
	}

	resp, err := h.startSession(httpserver.HTML(http.StatusOK, indexPage(username)), username)
	if err != nil {
		return serviceError(req, err)
	}
	return resp
}
