package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airfare-dashboard/internal/cache"
	"airfare-dashboard/internal/config"
	"airfare-dashboard/internal/dataset"
	"airfare-dashboard/internal/handlers"
	"airfare-dashboard/internal/repository"
	"airfare-dashboard/internal/services"
	"airfare-dashboard/pkg/database"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airfare-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting airfare dashboard API server", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
		"cache_backend":  cfg.Cache.Backend,
	})

	metricsCollector := metrics.NewCollector("airfare_dashboard", prometheus.DefaultRegisterer)

	// Dataset source
	var source dataset.Source
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err := database.NewPostgresDB(cfg.Database.Pool(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		fareRepo := repository.NewFareRepository(db, logger, metricsCollector)
		source = dataset.NewPostgresSource(fareRepo, cfg.Database.Database)
	default:
		source = dataset.NewCSVSource(cfg.Dataset.Location, cfg.Dataset.FetchTimeout)
	}

	// View cache
	viewCache, err := newCache(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to cache", logging.Fields{
			"backend": cfg.Cache.Backend,
		}, err)
	}
	defer viewCache.Close()

	// Load once and build every derived table before serving
	dashboard, err := services.NewDashboardService(ctx, source, services.DashboardOptions{
		TopN:     cfg.Dataset.TopRoutes,
		CacheTTL: cfg.Cache.TTL,
	}, viewCache, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to prepare dataset", logging.Fields{
			"source": source.Describe(),
		}, err)
	}

	dashboardHandler := handlers.NewDashboardHandler(dashboard, logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.AccessLog(logger))

	dashboardHandler.RegisterRoutes(router)
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI("Airfare Dashboard API Documentation", "/api/docs/openapi.json")).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	case config.CacheNone:
		return cache.NopCache{}, nil
	default:
		return cache.NewMemoryCache(0), nil
	}
}
