package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the structured logger used across peerhub. Arguments are
// alternating key/value pairs; keys that look like secrets are redacted
// by every backend.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Backend names accepted by Config.Backend.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Config selects the backend, format and level.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, text
	Backend string // slog, zap
	Output  io.Writer

	AddSource bool
}

// DefaultConfig logs JSON at info level to stderr through slog.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "json",
		Backend: BackendSlog,
		Output:  os.Stderr,
	}
}

// New builds a logger and makes cfg.Level the process-wide level.
func New(cfg Config) (Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	text := isTextFormat(cfg.Format)

	var l Logger
	switch strings.ToLower(cfg.Backend) {
	case "", BackendSlog:
		l = newSlogLogger(out, text, cfg.AddSource)
	case BackendZap:
		l = newZapLogger(out, text, cfg.AddSource)
	default:
		return nil, fmt.Errorf("logger: unknown backend %q", cfg.Backend)
	}
	setLevel(level)
	return l, nil
}

func isTextFormat(format string) bool {
	switch strings.ToLower(format) {
	case "text", "console":
		return true
	}
	return false
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return newSlogLogger(io.Discard, true, false)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	l := newSlogLogger(os.Stderr, false, false)
	SetDefault(l)
}

// SetDefault replaces the process-wide logger. nil is ignored.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(&l)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return *defaultLogger.Load()
}

// Info logs through Default.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs through Default.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs through Default.
func Error(msg string, args ...any) { Default().Error(msg, args...) }
