package handler

import (
	"strings"
	"testing"
)

func TestHandleLogin(t *testing.T) {
	hs := newHarness(t, Config{})
	hs.register(t, "alice", "secret")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCookie bool
	}{
		{"valid", "username=alice&password=secret", 200, true},
		{"wrong password", "username=alice&password=nope", 401, false},
		{"unknown user", "username=bob&password=secret", 401, false},
		{"empty", "", 401, false},
		{"bad form", "username=%zz", 400, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := hs.do("POST", "/login", tt.body, "")
			if resp.Status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.Status, tt.wantStatus, resp.Body)
			}
			tok := sessionToken(resp)
			if (tok != "") != tt.wantCookie {
				t.Fatalf("cookie = %q, wantCookie %v", resp.GetHeader("Set-Cookie"), tt.wantCookie)
			}
			if !tt.wantCookie {
				return
			}
			if user, ok := hs.sessions.Resolve(tok); !ok || user != "alice" {
				t.Errorf("Resolve() = %q, %v", user, ok)
			}
			c := resp.GetHeader("Set-Cookie")
			if !strings.Contains(c, "; HttpOnly; Path=/; Max-Age=3600") || strings.Contains(c, "Secure") {
				t.Errorf("Set-Cookie = %q", c)
			}
		})
	}
}

func TestHandleLogin_SecureCookie(t *testing.T) {
	hs := newHarness(t, Config{CookieSecure: true})
	hs.register(t, "alice", "secret")

	resp := hs.do("POST", "/login", "username=alice&password=secret", "")
	if c := resp.GetHeader("Set-Cookie"); !strings.HasSuffix(c, "; Secure") {
		t.Errorf("Set-Cookie = %q, want Secure", c)
	}
}

func TestHandleLogout(t *testing.T) {
	hs := newHarness(t, Config{})
	tok := hs.login(t, "alice")

	resp := hs.do("POST", "/logout", "", tok)
	if resp.Status != 200 {
		t.Fatalf("status = %d", resp.Status)
	}
	if c := resp.GetHeader("Set-Cookie"); !strings.Contains(c, "Max-Age=0") {
		t.Errorf("cookie not cleared: %q", c)
	}
	if _, ok := hs.sessions.Resolve(tok); ok {
		t.Error("session should be destroyed")
	}

	// Anonymous logout is harmless
	if resp := hs.do("POST", "/logout", "", ""); resp.Status != 200 {
		t.Errorf("anonymous logout status = %d", resp.Status)
	}
}

func TestAuthenticatedPages(t *testing.T) {
	hs := newHarness(t, Config{})
	tok := hs.login(t, "alice")

	for _, path := range []string{"/protected", "/", "/index", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			if resp := hs.do("GET", path, "", ""); resp.Status != 401 {
				t.Errorf("anonymous status = %d, want 401", resp.Status)
			}
			if resp := hs.do("GET", path, "", "forged-token"); resp.Status != 401 {
				t.Errorf("forged status = %d, want 401", resp.Status)
			}
			resp := hs.do("GET", path, "", tok)
			if resp.Status != 200 {
				t.Errorf("authenticated status = %d, want 200", resp.Status)
			}
		})
	}
}

func TestHandleLoginForm(t *testing.T) {
	hs := newHarness(t, Config{})

	// The 401 page links to the login form.
	denied := hs.do("GET", "/protected", "", "")
	if !strings.Contains(string(denied.Body), `href="/login"`) {
		t.Fatalf("401 body = %q", denied.Body)
	}

	resp := hs.do("GET", "/login", "", "")
	if resp.Status != 200 {
		t.Fatalf("GET /login status = %d, want 200", resp.Status)
	}
	body := string(resp.Body)
	for _, want := range []string{`action="/login"`, `name="username"`, `name="password"`} {
		if !strings.Contains(body, want) {
			t.Errorf("login form missing %q", want)
		}
	}
	if resp.GetHeader("Set-Cookie") != "" {
		t.Error("GET /login should not start a session")
	}
}

func TestHandleIndex_EscapesUser(t *testing.T) {
	hs := newHarness(t, Config{})
	tok := hs.login(t, "<b>eve</b>")

	resp := hs.do("GET", "/", "", tok)
	if strings.Contains(string(resp.Body), "<b>eve</b>") {
		t.Errorf("username not escaped: %s", resp.Body)
	}
}

func TestHandleSubmitInfo(t *testing.T) {
	hs := newHarness(t, Config{})

	// GET without parameters serves the form
	resp := hs.do("GET", "/submit-info", "", "")
	if resp.Status != 200 || !strings.Contains(string(resp.Body), "<form") {
		t.Fatalf("form: %d %s", resp.Status, resp.Body)
	}

	// POST registers and logs in
	resp = hs.do("POST", "/submit-info", "username=bob&password=pw", "")
	if resp.Status != 200 {
		t.Fatalf("register status = %d (%s)", resp.Status, resp.Body)
	}
	if user, ok := hs.sessions.Resolve(sessionToken(resp)); !ok || user != "bob" {
		t.Errorf("auto-login Resolve() = %q, %v", user, ok)
	}
	if resp := hs.do("POST", "/login", "username=bob&password=pw", ""); resp.Status != 200 {
		t.Errorf("login with registered credentials = %d", resp.Status)
	}

	// Duplicate
	resp = hs.do("POST", "/submit-info", "username=bob&password=other", "")
	if resp.Status != 409 || !strings.Contains(string(resp.Body), "already exists") {
		t.Errorf("duplicate: %d %s", resp.Status, resp.Body)
	}

	// Missing field
	if resp := hs.do("POST", "/submit-info", "username=carol", ""); resp.Status != 400 {
		t.Errorf("missing password status = %d", resp.Status)
	}

	// Invalid username
	if resp := hs.do("POST", "/submit-info", "username=a%2Fb&password=pw", ""); resp.Status != 400 {
		t.Errorf("invalid username status = %d", resp.Status)
	}

	// GET with query parameters registers too
	resp = hs.do("GET", "/submit-info?username=dave&password=pw", "", "")
	if resp.Status != 200 || sessionToken(resp) == "" {
		t.Errorf("GET register: %d %q", resp.Status, resp.GetHeader("Set-Cookie"))
	}
}
