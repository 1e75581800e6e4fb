package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/vehicle-trading/go/configs"
	"github.com/avatarctic/vehicle-trading/go/internal/application/services"
	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/db"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/health"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/httpserver"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/memcache"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/metrics"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/redis"
	"github.com/avatarctic/vehicle-trading/go/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting vehicle trading service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database)}

	// Redis backs the cache by default and the rate limiter whenever it is reachable.
	var redisClient *goredis.Client
	redisClient, err = redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		if cfg.Cache.Backend == config.CacheBackendRedis {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		logger.WithError(err).Warn("Redis unavailable; running without rate limiting")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
	}

	var cache ports.Cache
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		cache = memcache.New()
	default:
		cache = redis.NewRedisCache(redisClient, cfg.Cache.KeyPrefix)
	}
	logger.WithFields(logrus.Fields{"backend": cfg.Cache.Backend, "ttl": cfg.Cache.TTL}).Info("Cache configured")

	coreMetrics, err := metrics.NewCore(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register metrics:", err)
	}

	// Repositories
	ledgerRepo := repositories.NewIdempotencyRepository(database, logger)
	carModelRepo := repositories.NewCarModelRepository(database, logger)
	inventoryRepo := repositories.NewInventoryRepository(database, logger)
	orderRepo := repositories.NewOrderRepository(database, logger)

	// Core
	ledger := services.NewIdempotencyLedger(ledgerRepo, logger)
	commands := services.NewCommandOrchestrator(ledger, cache, coreMetrics, logger)
	queries := services.NewQueryOrchestrator(cache, cfg.Cache.TTL, coreMetrics, logger)
	adjuster := services.NewInventoryAdjuster(inventoryRepo, database, services.InventoryAdjusterConfig{
		StrictAvailability: cfg.Inventory.StrictAvailability,
	}, coreMetrics, logger)

	carModelService := services.NewCarModelService(carModelRepo, commands, queries, logger)
	inventoryService := services.NewInventoryService(inventoryRepo, adjuster, commands, queries, logger)
	orderService := services.NewOrderService(orderRepo, adjuster, database, commands, queries, logger)

	deps := httpserver.ServerDeps{
		CarModelService:  carModelService,
		InventoryService: inventoryService,
		OrderService:     orderService,
		HealthCheckers:   hcSlice,
	}
	if redisClient != nil {
		rateLimiterConfig := &services.RateLimiterConfig{
			DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
			BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
			Window:                   cfg.RateLimit.Window,
			KeyPrefix:                cfg.RateLimit.KeyPrefix,
		}
		deps.RateLimiterService = services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient), rateLimiterConfig, logger)
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
		CacheBackend:   cfg.Cache.Backend,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
