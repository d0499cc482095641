package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
	"github.com/yndnr/peerhub-go/pkg/cmap"
	"github.com/yndnr/peerhub-go/pkg/token"
)

// maxTokenAttempts bounds re-draws on token collision.
const maxTokenAttempts = 3

// sweepInterval throttles the opportunistic full purge done by Resolve.
const sweepInterval = time.Second

// SessionStore maps opaque tokens to usernames with a TTL.
type SessionStore struct {
	sessions *cmap.Map[string, *domain.Session]
	ttl      time.Duration

	now       func() time.Time
	newToken  func() (string, error)
	lastSweep atomic.Int64

	logger  logger.Logger
	metrics *metric.Registry
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionClock overrides the time source.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// WithTokenSource overrides token generation.
func WithTokenSource(fn func() (string, error)) SessionOption {
	return func(s *SessionStore) { s.newToken = fn }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = l }
}

// WithSessionMetrics records session counters into reg.
func WithSessionMetrics(reg *metric.Registry) SessionOption {
	return func(s *SessionStore) { s.metrics = reg }
}

// NewSessionStore creates a store whose sessions last ttl by default.
func NewSessionStore(ttl time.Duration, opts ...SessionOption) *SessionStore {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	s := &SessionStore{
		sessions: cmap.New[string, *domain.Session](),
		ttl:      ttl,
		now:      time.Now,
		newToken: token.Generate,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the default session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a new token for username. A non-positive ttl uses the
// store default.
func (s *SessionStore) Create(username string, ttl time.Duration) (string, error) {
	// 1. Validate
	if username == "" {
		return "", domain.ErrMissingArgument.WithDetails("username is required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	// 2. Draw a token not already in use
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		tok, err := s.newToken()
		if err != nil {
			return "", domain.ErrInternalServer.WithCause(fmt.Errorf("generate token: %w", err))
		}
		sess := domain.NewSession(tok, username, s.now(), ttl)
		if s.sessions.SetIfAbsent(tok, sess) {
			if s.metrics != nil {
				s.metrics.SessionsCreated.Inc()
			}
			s.logger.Debug("session created", "username", username, "expires_at", sess.ExpiresAt)
			return tok, nil
		}
		s.logger.Warn("session token collision, redrawing", "attempt", attempt+1)
	}
	return "", domain.ErrInternalServer.WithDetails("could not allocate a unique session token")
}

// Resolve returns the username bound to tok. Expired sessions are removed
// and reported as absent.
func (s *SessionStore) Resolve(tok string) (string, bool) {
	now := s.now()
	s.maybeSweep(now)

	if tok == "" {
		return "", false
	}

	var (
		username string
		expired  bool
	)
	found := s.sessions.Update(tok, func(cur *domain.Session) (*domain.Session, bool) {
		if cur.IsExpired(now) {
			expired = true
			return nil, false
		}
		username = cur.Username
		return cur, true
	})
	if expired && s.metrics != nil {
		s.metrics.SessionsExpired.Inc()
	}
	if !found {
		return "", false
	}
	return username, true
}

// Destroy removes tok. Unknown tokens are ignored.
func (s *SessionStore) Destroy(tok string) {
	if _, ok := s.sessions.Pop(tok); ok {
		if s.metrics != nil {
			s.metrics.SessionsRevoked.Inc()
		}
		s.logger.Debug("session destroyed")
	}
}

// Refresh extends a live session to now+ttl. A non-positive ttl uses the
// store default. Returns false for unknown or expired tokens.
func (s *SessionStore) Refresh(tok string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	return s.sessions.Update(tok, func(cur *domain.Session) (*domain.Session, bool) {
		if cur.IsExpired(now) {
			return nil, false
		}
		next := cur.Clone()
		next.Extend(now, ttl)
		return next, true
	})
}

// Purge removes every expired session and returns how many were removed.
func (s *SessionStore) Purge() int {
	now := s.now()
	s.lastSweep.Store(now.UnixNano())
	n := s.sessions.DeleteFunc(func(_ string, sess *domain.Session) bool {
		return sess.IsExpired(now)
	})
	if n > 0 {
		if s.metrics != nil {
			s.metrics.SessionsExpired.Add(float64(n))
		}
		s.logger.Debug("expired sessions purged", "count", n)
	}
	return n
}

// Count returns the number of stored sessions, expired ones included.
func (s *SessionStore) Count() int {
	return s.sessions.Count()
}

// Run purges expired sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}

func (s *SessionStore) maybeSweep(now time.Time) {
	last := s.lastSweep.Load()
	if now.UnixNano()-last < int64(sweepInterval) {
		return
	}
	if s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		s.Purge()
	}
}
