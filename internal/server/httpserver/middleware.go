package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// Middleware wraps a HandlerFunc with additional functionality.
type Middleware func(HandlerFunc) HandlerFunc

// Chain applies middlewares so that the first one runs outermost.
func Chain(h HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// AccessLog logs one line per dispatched request.
func AccessLog() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *Request) *Response {
			start := time.Now()
			resp := next(req)

			l := logger.L(req.Context())
			args := []any{
				"method", req.Method,
				"path", req.Path,
				"status", resp.Status,
				"bytes", len(resp.Body),
				"duration", time.Since(start),
			}
			if resp.Status >= http.StatusInternalServerError {
				l.Warn("request served", args...)
			} else {
				l.Info("request served", args...)
			}
			return resp
		}
	}
}

// Metrics records request counts and latency by route.
func Metrics(reg *metric.Registry) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if reg == nil {
			return next
		}
		return func(req *Request) *Response {
			start := time.Now()
			resp := next(req)

			route := req.Route
			if route == "" {
				route = unmatchedRoute
			}
			reg.RequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(resp.Status)).Inc()
			reg.RequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
			return resp
		}
	}
}

// RequireSession answers 401 unless the request carries a valid session.
func RequireSession() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *Request) *Response {
			if !req.Authenticated {
				return ErrorResponse(domain.ErrUnauthenticated)
			}
			return next(req)
		}
	}
}
