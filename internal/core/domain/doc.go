// Package domain defines the core domain models for peerhub.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Session: binding of an opaque token to a username with an expiry
//   - PeerRecord: a directory entry announced by a peer process
//   - Credential: a username with an argon2id password hash
//   - Errors: domain error codes shared by services and the HTTP layer
package domain
