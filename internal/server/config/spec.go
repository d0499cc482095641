package config

import "time"

// ServerConfig is the root configuration for peerhub-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Session     SessionSection     `koanf:"session"`
	Peer        PeerSection        `koanf:"peer"`
	Credentials CredentialsSection `koanf:"credentials"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP listener and request framing.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// ReadSlice is the length of each timed read while framing.
	ReadSlice time.Duration `koanf:"read_slice"`

	// HeaderTimeout bounds the wait for the complete header block.
	HeaderTimeout time.Duration `koanf:"header_timeout"`

	// BodyTimeout extends the deadline once headers are complete.
	BodyTimeout time.Duration `koanf:"body_timeout"`

	// MaxRequestTime caps the whole request read.
	MaxRequestTime time.Duration `koanf:"max_request_time"`

	WriteTimeout   time.Duration `koanf:"write_timeout"`
	MaxHeaderBytes int           `koanf:"max_header_bytes"`
	MaxBodyBytes   int           `koanf:"max_body_bytes"`

	// RateLimit is accepted connections per second per client IP; 0
	// disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// SessionSection configures the session store.
type SessionSection struct {
	TTL          time.Duration `koanf:"ttl"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// PeerSection configures the peer directory and relay.
type PeerSection struct {
	// TTL expires directory entries this long after their last
	// registration; 0 keeps them forever.
	TTL time.Duration `koanf:"ttl"`

	DialTimeout      time.Duration `koanf:"dial_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	BroadcastWorkers int           `koanf:"broadcast_workers"`

	// RequireAuth gates the peer routes behind a valid session.
	RequireAuth bool `koanf:"require_auth"`

	GCInterval time.Duration `koanf:"gc_interval"`
}

// CredentialsSection configures the username/password store.
type CredentialsSection struct {
	// Backend is memory, file or badger.
	Backend string `koanf:"backend"`

	// Path is the JSON file (file) or data directory (badger).
	Path string `koanf:"path"`

	// SeedUsers are registered at startup when absent.
	SeedUsers map[string]string `koanf:"seed_users"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the badger credential backend.
type BadgerSection struct {
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
	Backend string `koanf:"backend"`
}
