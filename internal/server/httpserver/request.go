package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/peerhub-go/internal/core/domain"
)

// ErrMalformedRequestLine is returned together with the fallback request
// when the request line cannot be split into method, path and version.
var ErrMalformedRequestLine = errors.New("malformed request line")

// Fallback request line used for unparsable input.
const (
	fallbackMethod  = "GET"
	fallbackPath    = "/index.html"
	fallbackVersion = "HTTP/1.1"
)

// Request is a parsed HTTP request.
type Request struct {
	Method  string
	Path    string
	Version string

	// RawQuery is the part of the target after '?'.
	RawQuery string
	Query    url.Values

	// Headers has lower-cased keys; later duplicates overwrite earlier ones.
	Headers map[string]string
	Cookies map[string]string
	Body    []byte

	RemoteAddr string
	RequestID  string

	// Route is the matched route path, set by the router.
	Route string

	// Session resolution results.
	User          string
	SessionID     string
	Authenticated bool

	ctx context.Context
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Header returns the value of a header, case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// Cookie returns the value of a cookie.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Cookies[name]
	return v, ok
}

// Form decodes a form-encoded body, falling back to the query string when
// the body is empty.
func (r *Request) Form() (url.Values, error) {
	if len(r.Body) == 0 {
		return r.Query, nil
	}
	values, err := url.ParseQuery(string(r.Body))
	if err != nil {
		return nil, domain.ErrBadRequest.WithDetails("invalid form body").WithCause(err)
	}
	return values, nil
}

// DecodeJSON decodes a JSON body into v.
func (r *Request) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return domain.ErrBadRequest.WithDetails("empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return domain.ErrBadRequest.WithDetails(err.Error()).WithCause(err)
	}
	return nil
}

// ParseRequest parses a framed request. On an unparsable request line it
// returns the fallback GET /index.html request together with
// ErrMalformedRequestLine; callers are expected to log and dispatch it.
func ParseRequest(f *Frame) (*Request, error) {
	header := string(f.Header())
	lines := strings.Split(header, "\r\n")

	req := &Request{
		Headers: make(map[string]string),
		Cookies: make(map[string]string),
		Body:    f.Body(),
	}

	// 1. Request line
	var parseErr error
	parts := strings.Fields(lines[0])
	switch len(parts) {
	case 3:
		req.Method, req.Path, req.Version = parts[0], parts[1], parts[2]
	case 2:
		req.Method, req.Path, req.Version = parts[0], parts[1], fallbackVersion
	default:
		req.Method, req.Path, req.Version = fallbackMethod, fallbackPath, fallbackVersion
		parseErr = fmt.Errorf("%w: %q", ErrMalformedRequestLine, truncate(lines[0], 64))
	}

	// 2. Query string
	if path, rawQuery, ok := strings.Cut(req.Path, "?"); ok {
		req.Path = path
		req.RawQuery = rawQuery
	}
	req.Query, _ = url.ParseQuery(req.RawQuery)

	// 3. Header lines
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		req.Headers[strings.ToLower(name)] = value
	}

	// 4. Cookies
	if raw, ok := req.Headers["cookie"]; ok {
		req.Cookies = ParseCookies(raw)
	}

	return req, parseErr
}

// ParseCookies splits a Cookie header on ';' and each pair on the first
// '='. Pairs without '=' or with an empty name are skipped.
func ParseCookies(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies
}

// SessionResolver maps a session token to a username.
type SessionResolver interface {
	Resolve(token string) (string, bool)
}

// ResolveSession authenticates r from its session cookie. A missing,
// unknown or expired token leaves r anonymous.
func ResolveSession(r *Request, sessions SessionResolver) {
	if sessions == nil {
		return
	}
	tok, ok := r.Cookies[domain.SessionCookieName]
	if !ok || tok == "" {
		return
	}
	user, ok := sessions.Resolve(tok)
	if !ok {
		return
	}
	r.User = user
	r.SessionID = tok
	r.Authenticated = true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
