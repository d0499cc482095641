package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/storage"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyHTTP(&cfg.Server.HTTP)...)
	errs = append(errs, verifySession(&cfg.Session)...)
	errs = append(errs, verifyPeer(&cfg.Peer)...)
	errs = append(errs, verifyCredentials(&cfg.Credentials)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyHTTP(c *HTTPConfig) []error {
	var errs []error
	if err := verifyAddr(c.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	errs = appendPositive(errs, "server.http.read_slice", c.ReadSlice)
	errs = appendPositive(errs, "server.http.header_timeout", c.HeaderTimeout)
	errs = appendPositive(errs, "server.http.body_timeout", c.BodyTimeout)
	errs = appendPositive(errs, "server.http.max_request_time", c.MaxRequestTime)
	errs = appendPositive(errs, "server.http.write_timeout", c.WriteTimeout)
	if c.MaxRequestTime > 0 && c.HeaderTimeout > c.MaxRequestTime {
		errs = append(errs, errors.New("server.http.header_timeout must not exceed max_request_time"))
	}
	if c.MaxHeaderBytes <= 0 {
		errs = append(errs, errors.New("server.http.max_header_bytes must be positive"))
	}
	if c.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.http.max_body_bytes must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if c.RateBurst < 0 {
		errs = append(errs, errors.New("server.http.rate_burst must not be negative"))
	}
	return errs
}

func verifySession(c *SessionSection) []error {
	var errs []error
	errs = appendPositive(errs, "session.ttl", c.TTL)
	errs = appendPositive(errs, "session.gc_interval", c.GCInterval)
	return errs
}

func verifyPeer(c *PeerSection) []error {
	var errs []error
	if c.TTL < 0 {
		errs = append(errs, errors.New("peer.ttl must not be negative"))
	}
	errs = appendPositive(errs, "peer.dial_timeout", c.DialTimeout)
	errs = appendPositive(errs, "peer.write_timeout", c.WriteTimeout)
	errs = appendPositive(errs, "peer.gc_interval", c.GCInterval)
	if c.BroadcastWorkers < 1 {
		errs = append(errs, errors.New("peer.broadcast_workers must be at least 1"))
	}
	return errs
}

func verifyCredentials(c *CredentialsSection) []error {
	var errs []error
	switch c.Backend {
	case storage.BackendMemory:
	case storage.BackendFile, storage.BackendBadger:
		if c.Path == "" {
			errs = append(errs, fmt.Errorf("credentials.path is required for the %s backend", c.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("credentials.backend: unknown backend %q", c.Backend))
	}
	if c.Backend == storage.BackendBadger && (c.Badger.GCThreshold <= 0 || c.Badger.GCThreshold >= 1) {
		errs = append(errs, errors.New("credentials.badger.gc_threshold must be in (0, 1)"))
	}

	names := make([]string, 0, len(c.SeedUsers))
	for name := range c.SeedUsers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := domain.ValidateCredentialInput(name, c.SeedUsers[name]); err != nil {
			errs = append(errs, fmt.Errorf("credentials.seed_users[%s]: %w", name, err))
		}
	}
	return errs
}

func verifyLog(c *LogSection) []error {
	var errs []error
	if !logger.ValidLevel(c.Level) {
		errs = append(errs, fmt.Errorf("log.level: invalid level %q", c.Level))
	}
	switch c.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be json or text, got %q", c.Format))
	}
	switch c.Backend {
	case logger.BackendSlog, logger.BackendZap:
	default:
		errs = append(errs, fmt.Errorf("log.backend: must be slog or zap, got %q", c.Backend))
	}
	return errs
}

func verifyAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func appendPositive(errs []error, key string, d time.Duration) []error {
	if d <= 0 {
		return append(errs, fmt.Errorf("%s must be positive, got %v", key, d))
	}
	return errs
}
