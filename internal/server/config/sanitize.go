package config

import (
	"maps"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Credentials.SeedUsers) > 0 {
		sanitized.Credentials.SeedUsers = maps.Clone(cfg.Credentials.SeedUsers)
		for name, pass := range sanitized.Credentials.SeedUsers {
			sanitized.Credentials.SeedUsers[name] = maskSecret(pass)
		}
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
