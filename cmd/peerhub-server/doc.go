// Package main provides the entry point for peerhub-server.
//
// peerhub-server is the tracker: it authenticates users, keeps the peer
// directory and relays private and broadcast messages to connected
// peers over plain TCP.
//
// Usage:
//
//	peerhub-server [flags]
//	peerhub-server --config /etc/peerhub/config.yaml
//	peerhub-server version
//
// Every configuration key can also be set through a PEERHUB_ environment
// variable, for example PEERHUB_SERVER_HTTP_ADDR=:9000.
package main
