package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// globalLevel is shared by every logger New creates, so SetLevel takes
// effect without rebuilding loggers.
var globalLevel = new(slog.LevelVar)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"":        slog.LevelInfo,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(level string) (slog.Level, error) {
	l, ok := levelNames[strings.ToLower(level)]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", level)
	}
	return l, nil
}

func setLevel(l slog.Level) {
	globalLevel.Set(l)
	syncZapLevel(l)
}

// ValidLevel reports whether level is a recognised level name.
func ValidLevel(level string) bool {
	_, err := parseLevel(level)
	return err == nil
}

// SetLevel changes the level of every logger. Unknown names are ignored.
func SetLevel(level string) {
	if l, err := parseLevel(level); err == nil {
		setLevel(l)
	}
}

// GetLevel returns the current level name.
func GetLevel() string {
	return strings.ToLower(globalLevel.Level().String())
}
