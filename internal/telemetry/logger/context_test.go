package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l := Discard()
	ctx := WithLogger(context.Background(), l)

	if FromContext(ctx) != l {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext without logger should return Default()")
	}
}

func TestScope(t *testing.T) {
	ctx := WithUser(WithRequestID(context.Background(), "01HZX"), "alice")
	if got := RequestIDFromContext(ctx); got != "01HZX" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := UserFromContext(ctx); got != "alice" {
		t.Errorf("UserFromContext() = %q", got)
	}

	// Tagging again keeps the other field.
	ctx = WithRequestID(ctx, "01HZY")
	if RequestIDFromContext(ctx) != "01HZY" || UserFromContext(ctx) != "alice" {
		t.Errorf("scope after retag = %q/%q", RequestIDFromContext(ctx), UserFromContext(ctx))
	}

	if RequestIDFromContext(context.Background()) != "" || UserFromContext(context.Background()) != "" {
		t.Error("empty context should have empty scope")
	}
}

func TestL(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(WithLogger(context.Background(), l), "req-7")
	L(ctx).Info("anonymous")
	L(WithUser(ctx, "bob")).Info("scoped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"request_id":"req-7"`) || strings.Contains(lines[0], `"user"`) {
		t.Errorf("anonymous line = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"user":"bob"`) {
		t.Errorf("scoped line = %q", lines[1])
	}
	if strings.Count(lines[1], "request_id") != 1 {
		t.Errorf("request_id repeated: %q", lines[1])
	}
}
