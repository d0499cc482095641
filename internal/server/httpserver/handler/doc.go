// Package handler provides the peerhub HTTP route handlers.
//
// Routes fall into three groups:
//
//   - auth: /login, /logout, /protected, /, /submit-info
//   - peer: /add-list, /get-list, /connect-peer, /send-peer, /broadcast-peer
//   - ops: /health, /metrics
//
// Handlers share the httpserver.HandlerFunc shape and receive their
// services from main through Services.
package handler
