package metric

import (
	"strings"
	"testing"
)

type fakeStats struct {
	sessions, registered, connected int
}

func (f fakeStats) ActiveSessions() int { return f.sessions }

func (f fakeStats) PeerCounts() (int, int) { return f.registered, f.connected }

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(fakeStats{sessions: 4, registered: 3, connected: 2}))

	out, err := r.WriteText()
	if err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	text := string(out)

	for _, w := range []string{
		"peerhub_session_active 4",
		"peerhub_peer_directory_entries 3",
		"peerhub_peer_connected_entries 2",
	} {
		if !strings.Contains(text, w) {
			t.Errorf("output missing %q", w)
		}
	}
}
