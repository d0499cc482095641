// Package service provides the stateful domain services of peerhub.
//
// This package contains:
//
//   - SessionStore: opaque-token sessions with TTL expiry
//   - Directory: the ordered peer directory and the connected-peer set
//   - Relay: outbound unicast and broadcast message delivery
//   - CredentialService: username/password verification and registration
//
// Each service owns its locks and is safe for concurrent use. Services are
// constructed once at startup and passed to the HTTP handler explicitly.
package service
