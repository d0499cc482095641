package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr       = "127.0.0.1:8080"
	DefaultReadSlice      = 500 * time.Millisecond
	DefaultHeaderTimeout  = 2 * time.Second
	DefaultBodyTimeout    = 2 * time.Second
	DefaultMaxRequestTime = 10 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultMaxHeaderBytes = 64 << 10
	DefaultMaxBodyBytes   = 1 << 20

	DefaultSessionTTL        = time.Hour
	DefaultSessionGCInterval = time.Minute

	DefaultPeerDialTimeout      = 2 * time.Second
	DefaultPeerWriteTimeout     = 2 * time.Second
	DefaultPeerBroadcastWorkers = 8
	DefaultPeerGCInterval       = time.Minute

	DefaultCredentialsBackend = "file"
	DefaultCredentialsPath    = "db/users.json"

	DefaultBadgerGCInterval  = 10 * time.Minute
	DefaultBadgerGCThreshold = 0.5

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultLogBackend = "slog"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:           DefaultHTTPAddr,
				ReadSlice:      DefaultReadSlice,
				HeaderTimeout:  DefaultHeaderTimeout,
				BodyTimeout:    DefaultBodyTimeout,
				MaxRequestTime: DefaultMaxRequestTime,
				WriteTimeout:   DefaultWriteTimeout,
				MaxHeaderBytes: DefaultMaxHeaderBytes,
				MaxBodyBytes:   DefaultMaxBodyBytes,
			},
		},
		Session: SessionSection{
			TTL:        DefaultSessionTTL,
			GCInterval: DefaultSessionGCInterval,
		},
		Peer: PeerSection{
			DialTimeout:      DefaultPeerDialTimeout,
			WriteTimeout:     DefaultPeerWriteTimeout,
			BroadcastWorkers: DefaultPeerBroadcastWorkers,
			GCInterval:       DefaultPeerGCInterval,
		},
		Credentials: CredentialsSection{
			Backend: DefaultCredentialsBackend,
			Path:    DefaultCredentialsPath,
			Badger: BadgerSection{
				GCInterval:  DefaultBadgerGCInterval,
				GCThreshold: DefaultBadgerGCThreshold,
				SyncWrites:  true,
			},
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
	}
}
