package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"runtime/debug"
	"strings"

	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// ErrDuplicateRoute is returned by NewRouter for a repeated (method, path).
var ErrDuplicateRoute = errors.New("duplicate route")

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

// HandlerFunc is the single handler shape.
type HandlerFunc func(*Request) *Response

// Route binds a method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler HandlerFunc
}

type routeKey struct {
	method string
	path   string
}

// Router is an immutable route table.
type Router struct {
	routes map[routeKey]HandlerFunc
	order  []routeKey
}

// NewRouter builds the route table. Paths are normalized; a repeated
// (method, path) pair returns ErrDuplicateRoute.
func NewRouter(routes ...Route) (*Router, error) {
	r := &Router{routes: make(map[routeKey]HandlerFunc, len(routes))}
	for _, rt := range routes {
		if rt.Handler == nil {
			return nil, fmt.Errorf("route %s %s: nil handler", rt.Method, rt.Path)
		}
		key := routeKey{method: strings.ToUpper(rt.Method), path: NormalizePath(rt.Path)}
		if _, exists := r.routes[key]; exists {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateRoute, key.method, key.path)
		}
		r.routes[key] = rt.Handler
		r.order = append(r.order, key)
	}
	return r, nil
}

// Routes lists "METHOD /path" in registration order.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, k.method+" "+k.path)
	}
	return out
}

// Dispatch runs the handler for req. Unknown routes get 404 without any
// handler call; a handler panic or nil response becomes 500.
func (r *Router) Dispatch(req *Request) (resp *Response) {
	key := routeKey{method: strings.ToUpper(req.Method), path: NormalizePath(req.Path)}
	h, ok := r.routes[key]
	if !ok {
		req.Route = unmatchedRoute
		return Text(http.StatusNotFound, "Not Found")
	}
	req.Route = key.path

	defer func() {
		if rec := recover(); rec != nil {
			logger.L(req.Context()).Error("handler panic recovered",
				"method", req.Method,
				"path", req.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			resp = Text(http.StatusInternalServerError, "Internal Server Error")
		}
	}()

	resp = h(req)
	if resp == nil {
		logger.L(req.Context()).Error("handler returned no response", "method", req.Method, "path", req.Path)
		return Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return resp
}

// NormalizePath cleans p and strips a trailing slash except on "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
