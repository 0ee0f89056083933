package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

const pingTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth handles GET /healthz. Every registered pinger must answer for
// the service to report ok.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(s.pingers) > 0 {
		resp.Checks = make(map[string]string, len(s.pingers))
	}
	for _, p := range s.pingers {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			s.logger.Warn(r.Context(), "health check failed", logger.String("check", p.name), logger.Error(err))
			resp.Checks[p.name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[p.name] = "ok"
	}
	writeJSON(w, status, resp)
}

// metricsHandler serves the custom metrics registry.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
