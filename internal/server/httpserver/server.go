package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string

	// Framer bounds request reading.
	Framer FramerConfig

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration

	// RateLimit is new connections per second per client IP. 0 disables.
	RateLimit float64

	// RateBurst is the token bucket size; defaults to RateLimit.
	RateBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		Framer:       DefaultFramerConfig(),
		WriteTimeout: 5 * time.Second,
	}
}

// Server accepts TCP connections and serves one request per connection.
type Server struct {
	cfg      Config
	handler  HandlerFunc
	sessions SessionResolver
	logger   logger.Logger
	metrics  *metric.Registry
	limiter  *ipLimiter

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request and framing metrics into reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) { s.metrics = reg }
}

// WithSessions resolves the session cookie of every request.
func WithSessions(r SessionResolver) Option {
	return func(s *Server) { s.sessions = r }
}

// New creates a server dispatching through router.
func New(cfg Config, router *Router, opts ...Option) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	cfg.Framer = cfg.Framer.withDefaults()

	s := &Server{
		cfg:    cfg,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = newIPLimiter(cfg.RateLimit, cfg.RateBurst)
	s.handler = Chain(router.Dispatch, AccessLog(), Metrics(s.metrics))
	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.Serve(ctx, ln)
	return nil
}

// Serve serves connections from ln in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	s.ln = ln
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running.Store(true)

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
}

// Addr returns the listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and waits for in-flight connections until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	err := s.ln.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
	s.cancel()

	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.logger.Info("http server stopped")
	return err
}

// acceptLoop returns only once the listener is closed or ctx is done.
// Every other Accept error (EMFILE, ECONNABORTED, timeouts) is retried
// with backoff.
func (s *Server) acceptLoop(ctx context.Context) {
	var backoff time.Duration
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = nextBackoff(backoff)
			s.logger.Warn("accept error, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// serveConn reads one request, dispatches it, writes one response and
// closes conn.
func (s *Server) serveConn(conn net.Conn) {
	requestID := ulid.Make().String()
	remote := conn.RemoteAddr().String()
	connLog := s.logger.With("remote", remote)
	log := connLog.With("request_id", requestID)

	defer conn.Close()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("connection panic recovered", "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
		}
	}()

	// 1. Per-IP admission
	if !s.limiter.Allow(hostOf(remote)) {
		if s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		log.Warn("connection rate limited")
		s.write(conn, ErrorResponse(domain.ErrRateLimited).SetHeader("Retry-After", "1"), log)
		return
	}

	// 2. Frame
	frame, err := ReadFrame(conn, s.cfg.Framer)
	if err != nil {
		s.framingFailed(conn, err, log)
		return
	}

	// 3. Parse
	req, err := ParseRequest(frame)
	if errors.Is(err, ErrMalformedRequestLine) {
		log.Warn("malformed request line, dispatching fallback", "error", err)
	}
	req.RemoteAddr = remote
	req.RequestID = requestID

	ctx := logger.WithLogger(s.baseCtx, connLog)
	ctx = logger.WithRequestID(ctx, requestID)
	req = req.WithContext(ctx)
	ResolveSession(req, s.sessions)
	if req.Authenticated {
		req = req.WithContext(logger.WithUser(req.Context(), req.User))
	}

	// 4. Dispatch and respond
	resp := s.handler(req)
	resp.SetHeader("X-Request-ID", requestID)
	s.write(conn, resp, log)
}

func (s *Server) framingFailed(conn net.Conn, err error, log logger.Logger) {
	reason := "closed"
	switch {
	case errors.Is(err, ErrFramingTimeout):
		reason = "timeout"
	case errors.Is(err, ErrLimitExceeded):
		reason = "limit"
	}
	if s.metrics != nil {
		s.metrics.FramingFailures.WithLabelValues(reason).Inc()
	}

	switch {
	case errors.Is(err, ErrHeaderTooLarge):
		log.Warn("request rejected", "error", err)
		s.write(conn, Text(http.StatusRequestHeaderFieldsTooLarge, "Request Header Fields Too Large"), log)
	case errors.Is(err, ErrBodyTooLarge):
		log.Warn("request rejected", "error", err)
		s.write(conn, Text(http.StatusRequestEntityTooLarge, "Request Entity Too Large"), log)
	default:
		log.Debug("framing failed, closing without response", "error", err)
	}
}

func (s *Server) write(conn net.Conn, resp *Response, log logger.Logger) {
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		log.Debug("set write deadline failed", "error", err)
		return
	}
	if _, err := resp.WriteTo(conn); err != nil {
		log.Debug("response write failed", "error", err)
	}
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
