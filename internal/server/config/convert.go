package config

import (
	"github.com/yndnr/peerhub-go/internal/core/service"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/server/httpserver/handler"
	"github.com/yndnr/peerhub-go/internal/storage"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// HTTPServer returns the listener configuration.
func (c *ServerConfig) HTTPServer() httpserver.Config {
	h := c.Server.HTTP
	return httpserver.Config{
		Addr: h.Addr,
		Framer: httpserver.FramerConfig{
			ReadSlice:      h.ReadSlice,
			HeaderTimeout:  h.HeaderTimeout,
			BodyTimeout:    h.BodyTimeout,
			MaxRequestTime: h.MaxRequestTime,
			MaxHeaderBytes: h.MaxHeaderBytes,
			MaxBodyBytes:   h.MaxBodyBytes,
		},
		WriteTimeout: h.WriteTimeout,
		RateLimit:    h.RateLimit,
		RateBurst:    h.RateBurst,
	}
}

// Handler returns the route handler configuration.
func (c *ServerConfig) Handler() handler.Config {
	return handler.Config{
		SessionTTL:   c.Session.TTL,
		CookieSecure: c.Session.CookieSecure,
		RequireAuth:  c.Peer.RequireAuth,
	}
}

// Relay returns the relay bounds.
func (c *ServerConfig) Relay() service.RelayConfig {
	return service.RelayConfig{
		DialTimeout:  c.Peer.DialTimeout,
		WriteTimeout: c.Peer.WriteTimeout,
		Workers:      c.Peer.BroadcastWorkers,
	}
}

// Storage returns the credential backend configuration.
func (c *ServerConfig) Storage() storage.Config {
	return storage.Config{
		Backend: c.Credentials.Backend,
		Path:    c.Credentials.Path,
		Badger: storage.BadgerConfig{
			GCInterval:  c.Credentials.Badger.GCInterval,
			GCThreshold: c.Credentials.Badger.GCThreshold,
			SyncWrites:  c.Credentials.Badger.SyncWrites,
		},
	}
}

// Logger returns the logger configuration.
func (c *ServerConfig) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	cfg.Backend = c.Log.Backend
	return cfg
}
