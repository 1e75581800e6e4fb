package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	customMiddleware "github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
	// CacheBackend is reported by the health endpoint.
	CacheBackend   string
}

type ServerDeps struct {
	CarModelService    ports.CarModelService
	InventoryService   ports.InventoryService
	OrderService       ports.OrderService
	RateLimiterService ports.RateLimiterService
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	carModels      ports.CarModelService
	inventory      ports.InventoryService
	orders         ports.OrderService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = envelopeErrorHandler(logger)

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		carModels:      deps.CarModelService,
		inventory:      deps.InventoryService,
		orders:         deps.OrderService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
