package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/infra/buildinfo"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
	"github.com/yndnr/peerhub-go/internal/telemetry/metric"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(req *httpserver.Request) *httpserver.Response {
	info := buildinfo.Get()
	registered, connected := h.dir.Counts()
	return httpserver.JSON(http.StatusOK, HealthResponse{
		Status:          "ok",
		Version:         info.Version,
		Commit:          info.Commit,
		GoVersion:       info.GoVersion,
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		Sessions:        h.sessions.Count(),
		PeersRegistered: registered,
		PeersConnected:  connected,
	})
}

// handleMetrics handles GET /metrics.
func (h *Handler) handleMetrics(req *httpserver.Request) *httpserver.Response {
	body, err := h.metrics.WriteText()
	if err != nil {
		return serviceError(req, domain.ErrInternalServer.WithCause(err))
	}
	return httpserver.NewResponse(http.StatusOK, metric.ContentType, body)
}
