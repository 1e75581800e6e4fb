package httpserver

import (
	"github.com/labstack/echo/v4/middleware"

	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", helpers.IdempotencyKeyHeader},
	}))
	s.echo.Use(middleware.RequestID())

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())

	s.echo.Use(s.middleware.Logging.RequestLogging())
	s.echo.Use(s.middleware.RateLimit.Handler())
}
