package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "text format", cfg: Config{Level: "debug", Format: "text"}},
		{name: "zap json", cfg: Config{Level: "info", Format: "json", Backend: BackendZap}},
		{name: "zap console", cfg: Config{Level: "warn", Format: "console", Backend: BackendZap}},
		{name: "unknown backend", cfg: Config{Backend: "logrus"}, wantErr: true},
		{name: "unknown level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
	SetLevel("info")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log output, got empty string")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", line, err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "debug", Format: "json", Backend: backend, Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer SetLevel("info")

			for _, logFunc := range []func(string, ...any){l.Debug, l.Info, l.Warn, l.Error} {
				buf.Reset()
				logFunc("test message", "component", "test-value")

				entry := decodeLine(t, &buf)
				if entry["msg"] != "test message" {
					t.Errorf("msg = %v, want 'test message'", entry["msg"])
				}
				if entry["component"] != "test-value" {
					t.Errorf("component = %v, want test-value", entry["component"])
				}
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.With("service", "relay").Info("hello")

	entry := decodeLine(t, &buf)
	if entry["service"] != "relay" {
		t.Errorf("service = %v, want relay", entry["service"])
	}
}

func TestSetLevel(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Backend: backend, Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer SetLevel("info")

			l.Debug("hidden")
			if buf.Len() != 0 {
				t.Fatalf("debug should be filtered at info level, got %q", buf.String())
			}

			SetLevel("debug")
			if GetLevel() != "debug" {
				t.Fatalf("GetLevel() = %q, want debug", GetLevel())
			}
			l.Debug("visible")
			if !strings.Contains(buf.String(), "visible") {
				t.Errorf("debug should be emitted after SetLevel(debug), got %q", buf.String())
			}

			// unknown names leave the level alone
			SetLevel("nonsense")
			if GetLevel() != "debug" {
				t.Errorf("GetLevel() = %q after bad SetLevel, want debug", GetLevel())
			}
		})
	}
}

func TestZapRedaction(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Backend: BackendZap, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("login", "username", "alice", "password", "hunter2")

	entry := decodeLine(t, &buf)
	if entry["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	if entry["username"] != "alice" {
		t.Errorf("username = %v, want alice", entry["username"])
	}
}

func TestZapWithContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Backend: BackendZap, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithUser(WithRequestID(context.Background(), "req-42"), "alice")
	l.WithContext(ctx).Info("handled")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-42" || entry["user"] != "alice" {
		t.Errorf("entry = %v, want request_id req-42 and user alice", entry)
	}
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})
	SetDefault(l)

	Info("global message")
	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("global Info not routed to default logger: %q", buf.String())
	}

	SetDefault(nil)
	if Default() != l {
		t.Error("SetDefault(nil) should keep the current logger")
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false", lvl)
		}
	}
	if ValidLevel("trace") {
		t.Error("ValidLevel(trace) = true")
	}
}
