package handler

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/core/service"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/storage/memory"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

type harness struct {
	router   *httpserver.Router
	sessions *service.SessionStore
	dir      *service.Directory
	creds    *service.CredentialService
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	sessions := service.NewSessionStore(time.Hour)
	dir := service.NewDirectory()
	relay := service.NewRelay(dir, service.RelayConfig{
		DialTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		Workers:      4,
	})
	creds := service.NewCredentialService(memory.NewCredentialStore(), nil)

	h := New(Services{
		Sessions:    sessions,
		Directory:   dir,
		Relay:       relay,
		Credentials: creds,
	}, cfg, metric.NewRegistry(), nil)

	router, err := httpserver.NewRouter(h.Routes()...)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return &harness{router: router, sessions: sessions, dir: dir, creds: creds}
}

// do dispatches a request; token, when set, is sent as the session cookie.
func (hs *harness) do(method, target, body, token string) *httpserver.Response {
	path, rawQuery, _ := strings.Cut(target, "?")
	query, _ := url.ParseQuery(rawQuery)
	req := &httpserver.Request{
		Method:   method,
		Path:     path,
		Version:  "HTTP/1.1",
		RawQuery: rawQuery,
		Query:    query,
		Headers:  map[string]string{},
		Cookies:  map[string]string{},
		Body:     []byte(body),
	}
	if token != "" {
		req.Cookies[domain.SessionCookieName] = token
		httpserver.ResolveSession(req, hs.sessions)
	}
	return hs.router.Dispatch(req)
}

func (hs *harness) register(t *testing.T, user, pass string) {
	t.Helper()
	if _, err := hs.creds.Register(context.Background(), user, pass); err != nil {
		t.Fatalf("Register(%q) error = %v", user, err)
	}
}

func (hs *harness) login(t *testing.T, user string) string {
	t.Helper()
	tok, err := hs.sessions.Create(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// sessionToken extracts the sessionid value from a Set-Cookie header.
func sessionToken(resp *httpserver.Response) string {
	c := resp.GetHeader("Set-Cookie")
	pair, _, _ := strings.Cut(c, ";")
	name, value, ok := strings.Cut(pair, "=")
	if !ok || name != domain.SessionCookieName {
		return ""
	}
	return value
}

func decode[T any](t *testing.T, resp *httpserver.Response) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		t.Fatalf("decode %q: %v", resp.Body, err)
	}
	return v
}

// peerListener accepts connections and forwards each payload on the
// returned channel.
func peerListener(t *testing.T) (int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	ch := make(chan string, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			b, _ := io.ReadAll(conn)
			conn.Close()
			ch <- string(b)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, ch
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func addPeer(t *testing.T, hs *harness, name string, port int) {
	t.Helper()
	body := `{"user":"` + name + `","item":"` + name + `-item","port":` + strconv.Itoa(port) + `}`
	if resp := hs.do("POST", "/add-list", body, ""); resp.Status != 200 {
		t.Fatalf("add-list %s: %d %s", name, resp.Status, resp.Body)
	}
}

func connect(t *testing.T, hs *harness, name string) {
	t.Helper()
	resp := hs.do("POST", "/connect-peer", `{"peer":"`+name+`"}`, "")
	if got := decode[ConnectPeerResponse](t, resp); got.Message != msgPeerConnected {
		t.Fatalf("connect %s: %+v", name, got)
	}
}

func TestRoutes_NoDuplicates(t *testing.T) {
	hs := newHarness(t, Config{})
	paths := hs.router.Routes()
	if len(paths) != 16 {
		t.Errorf("route count = %d, want 16: %v", len(paths), paths)
	}
}

func TestHandleHealth(t *testing.T) {
	hs := newHarness(t, Config{})
	hs.register(t, "alice", "secret")
	hs.login(t, "alice")

	resp := hs.do("GET", "/health", "", "")
	if resp.Status != 200 || resp.ContentType != httpserver.ContentTypeJSON {
		t.Fatalf("status = %d, content-type = %q", resp.Status, resp.ContentType)
	}
	got := decode[HealthResponse](t, resp)
	if got.Status != "ok" || got.Version == "" || got.Sessions != 1 {
		t.Errorf("health = %+v", got)
	}
}

func TestHandleMetrics(t *testing.T) {
	hs := newHarness(t, Config{})
	hs.do("POST", "/add-list", `{"user":"app1","item":"x","port":9001}`, "")

	resp := hs.do("GET", "/metrics", "", "")
	if resp.Status != 200 {
		t.Fatalf("status = %d", resp.Status)
	}
	if resp.ContentType != metric.ContentType {
		t.Errorf("content-type = %q", resp.ContentType)
	}
	if !strings.Contains(string(resp.Body), "peerhub_peer_registrations_total") {
		t.Errorf("metrics missing peer registrations:\n%s", resp.Body)
	}
}
