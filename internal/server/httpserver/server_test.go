package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

func startTestServer(t *testing.T, cfg Config, routes ...Route) (*Server, string) {
	t.Helper()

	router, err := NewRouter(routes...)
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := New(cfg, router,
		WithSessions(fakeResolver{"tok-alice": "alice"}),
		WithMetrics(metric.NewRegistry()))
	s.Serve(context.Background(), ln)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, ln.Addr().String()
}

// roundTrip writes raw to addr and returns everything the server sends
// before closing.
func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if raw != "" {
		if _, err := conn.Write([]byte(raw)); err != nil {
			t.Fatal(err)
		}
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	out, _ := io.ReadAll(conn)
	return string(out)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Framer = fastFramer()
	return cfg
}

func whoami(r *Request) *Response {
	if !r.Authenticated {
		return Text(http.StatusUnauthorized, "anonymous")
	}
	return Text(http.StatusOK, "user="+r.User)
}

func echo(r *Request) *Response {
	return Text(http.StatusOK, r.Method+" "+r.Path+" "+string(r.Body))
}

func TestServer_RoundTrip(t *testing.T) {
	_, addr := startTestServer(t, testConfig(),
		Route{Method: "POST", Path: "/echo", Handler: echo},
		Route{Method: "GET", Path: "/whoami", Handler: whoami},
	)

	out := roundTrip(t, addr, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("response = %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nPOST /echo hello") {
		t.Errorf("body mismatch: %q", out)
	}
	if !strings.Contains(out, "X-Request-ID: ") || !strings.Contains(out, "Connection: close\r\n") {
		t.Errorf("missing headers: %q", out)
	}

	out = roundTrip(t, addr, "GET /whoami HTTP/1.1\r\nCookie: sessionid=tok-alice\r\n\r\n")
	if !strings.HasSuffix(out, "user=alice") {
		t.Errorf("session not resolved: %q", out)
	}

	out = roundTrip(t, addr, "GET /whoami HTTP/1.1\r\nCookie: sessionid=forged\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 401") {
		t.Errorf("forged session should be anonymous: %q", out)
	}
}

func TestServer_NotFound(t *testing.T) {
	_, addr := startTestServer(t, testConfig(), Route{Method: "GET", Path: "/", Handler: echo})

	out := roundTrip(t, addr, "GET /nowhere HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("response = %q", out)
	}
}

func TestServer_MalformedRequestLineFallback(t *testing.T) {
	_, addr := startTestServer(t, testConfig(),
		Route{Method: "GET", Path: "/index.html", Handler: func(*Request) *Response {
			return HTML(http.StatusOK, "index")
		}},
	)

	out := roundTrip(t, addr, "NONSENSE\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") || !strings.HasSuffix(out, "index") {
		t.Errorf("fallback not dispatched: %q", out)
	}
}

func TestServer_FramingTimeoutClosesSilently(t *testing.T) {
	_, addr := startTestServer(t, testConfig(), Route{Method: "GET", Path: "/", Handler: echo})

	start := time.Now()
	out := roundTrip(t, addr, "GET / HTTP/1.1\r\nHost: x")
	if out != "" {
		t.Errorf("partial request must not get a response, got %q", out)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("connection should close at the header deadline")
	}
}

func TestServer_BodyTooLarge(t *testing.T) {
	_, addr := startTestServer(t, testConfig(), Route{Method: "POST", Path: "/", Handler: echo})

	out := roundTrip(t, addr, "POST / HTTP/1.1\r\nContent-Length: 999999\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 413 ") {
		t.Errorf("response = %q", out)
	}
}

func TestServer_PanicIsolated(t *testing.T) {
	_, addr := startTestServer(t, testConfig(),
		Route{Method: "GET", Path: "/boom", Handler: func(*Request) *Response { panic("boom") }},
		Route{Method: "GET", Path: "/ok", Handler: echo},
	)

	if out := roundTrip(t, addr, "GET /boom HTTP/1.1\r\n\r\n"); !strings.HasPrefix(out, "HTTP/1.1 500 ") {
		t.Errorf("panic response = %q", out)
	}
	if out := roundTrip(t, addr, "GET /ok HTTP/1.1\r\n\r\n"); !strings.HasPrefix(out, "HTTP/1.1 200 ") {
		t.Errorf("server should keep serving after a panic: %q", out)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	_, addr := startTestServer(t, cfg, Route{Method: "GET", Path: "/", Handler: echo})

	if out := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n"); !strings.HasPrefix(out, "HTTP/1.1 200 ") {
		t.Fatalf("first request = %q", out)
	}
	out := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 429 ") || !strings.Contains(out, "Retry-After: 1\r\n") {
		t.Errorf("second request = %q", out)
	}
}

func TestServer_ConcurrentConnections(t *testing.T) {
	_, addr := startTestServer(t, testConfig(), Route{Method: "POST", Path: "/echo", Handler: echo})

	const n = 20
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				results <- err.Error()
				return
			}
			defer conn.Close()
			conn.Write([]byte("POST /echo HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi"))
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			out, _ := io.ReadAll(conn)
			results <- string(out)
		}()
	}
	for i := 0; i < n; i++ {
		if out := <-results; !strings.HasSuffix(out, "POST /echo hi") {
			t.Errorf("response = %q", out)
		}
	}
}

func TestServer_Shutdown(t *testing.T) {
	s, addr := startTestServer(t, testConfig(), Route{Method: "GET", Path: "/", Handler: echo})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		t.Error("listener should be closed after Shutdown")
	}
	// Idempotent
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

// flakyListener fails its first Accept with a non-timeout error.
type flakyListener struct {
	net.Listener
	failed bool
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if !l.failed {
		l.failed = true
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: syscall.EMFILE}
	}
	return l.Listener.Accept()
}

func TestServer_AcceptErrorRetried(t *testing.T) {
	router, err := NewRouter(Route{Method: "GET", Path: "/whoami", Handler: whoami})
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(testConfig(), router)
	s.Serve(context.Background(), &flakyListener{Listener: ln})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})

	out := roundTrip(t, ln.Addr().String(), "GET /whoami HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 401") {
		t.Fatalf("response after accept error = %q", out)
	}
}
