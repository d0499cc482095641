// Package buildinfo reports build-time version information.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/peerhub-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not injected, Get falls back to the module and VCS data
// the Go toolchain embeds in the binary.
package buildinfo
