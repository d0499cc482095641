package metric

import (
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.registry == nil {
		t.Fatal("registry should not be nil")
	}
	if r.RequestsTotal == nil || r.RelayDeliveries == nil {
		t.Fatal("metric vectors should be initialized")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestWriteText(t *testing.T) {
	r := NewRegistry()
	r.RequestsTotal.WithLabelValues("GET", "/get-list", "200").Inc()
	r.RelayDeliveries.WithLabelValues("broadcast", "ok").Add(3)
	r.SessionsCreated.Inc()

	out, err := r.WriteText()
	if err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	text := string(out)

	wants := []string{
		`peerhub_http_requests_total{method="GET",route="/get-list",status="200"} 1`,
		`peerhub_relay_deliveries_total{kind="broadcast",result="ok"} 3`,
		`peerhub_session_created_total 1`,
		`go_goroutines`,
	}
	for _, w := range wants {
		if !strings.Contains(text, w) {
			t.Errorf("WriteText() missing %q", w)
		}
	}
}
