// Package peeragent is the peer side of peerhub.
//
// Listener accepts relay deliveries on the peer's own port and records
// every message. Client talks to the tracker's peer routes to register,
// connect and send.
package peeragent
