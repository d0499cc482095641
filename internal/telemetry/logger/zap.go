package logger

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevel mirrors globalLevel for the zap backend.
var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func syncZapLevel(l slog.Level) {
	switch {
	case l <= slog.LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case l <= slog.LevelInfo:
		zapLevel.SetLevel(zapcore.InfoLevel)
	case l <= slog.LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	default:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	}
}

// zapLogger adapts a zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newZapLogger(output io.Writer, text, addSource bool) *zapLogger {
	var encoder zapcore.Encoder
	if text {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.MessageKey = "msg"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), zapLevel)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if addSource {
		opts = append(opts, zap.AddCaller())
	}

	return &zapLogger{sugar: zap.New(core, opts...).Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, redactKeyvals(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, redactKeyvals(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, redactKeyvals(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, redactKeyvals(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(redactKeyvals(args)...)}
}

// WithContext attaches the request scope carried by ctx; zap has no
// context hook of its own.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	var kv []any
	if id := RequestIDFromContext(ctx); id != "" {
		kv = append(kv, "request_id", id)
	}
	if user := UserFromContext(ctx); user != "" {
		kv = append(kv, "user", user)
	}
	if len(kv) == 0 {
		return l
	}
	return &zapLogger{sugar: l.sugar.With(kv...)}
}

// Sync flushes buffered entries.
func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
