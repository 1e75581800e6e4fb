package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

type dependencyHealth struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

type healthResponse struct {
	Status       string                      `json:"status"`
	Service      string                      `json:"service"`
	Version      string                      `json:"version"`
	Timestamp    string                      `json:"timestamp"`
	CacheBackend string                      `json:"cache_backend,omitempty"`
	Dependencies map[string]dependencyHealth `json:"dependencies"`
}

// healthCheck checks every registered dependency. Any failing check makes
// the service degraded and answers 503.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:       "healthy",
		Service:      "vehicle-trading",
		Version:      "1.0.0",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Dependencies: make(map[string]dependencyHealth),
	}
	if s.config != nil {
		resp.CacheBackend = s.config.CacheBackend
	}
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		start := time.Now()
		err := hc.Check(ctx)
		dep := dependencyHealth{Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			dep.Status = "unhealthy"
			resp.Status = "degraded"
			s.logger.WithField("dependency", hc.Name()).WithError(err).Warn("health check failed")
		}
		resp.Dependencies[hc.Name()] = dep
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
