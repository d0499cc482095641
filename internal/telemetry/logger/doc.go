// Package logger provides structured logging for peerhub.
//
// Two interchangeable backends sit behind the Logger interface:
//
//   - logger.go: log/slog JSON/text handlers (default backend)
//   - zap.go: go.uber.org/zap sugared logger (backend "zap")
//   - context.go: context-aware logging with request IDs
//   - redact.go: sensitive data redaction shared by both backends
//
// Both backends share one dynamic level, so SetLevel (for example after a
// configuration reload) takes effect immediately whichever backend is active.
package logger
