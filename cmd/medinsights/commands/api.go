package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/medinsights/backend/internal/api"
	"github.com/medinsights/backend/internal/api/handlers"
	"github.com/medinsights/backend/internal/catalog"
	"github.com/medinsights/backend/internal/external/prophet"
	"github.com/medinsights/backend/internal/forecast"
	"github.com/medinsights/backend/internal/history"
	"github.com/medinsights/backend/internal/inventory"
	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/database"
	"github.com/medinsights/backend/pkg/logger"
	"github.com/medinsights/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                       - Health check
  GET  /api/forecast                 - Resolve a demand forecast
  POST /api/medicines/sales          - Record a day's sales
  GET  /api/medicines/sales          - List sales records
  GET  /api/medicines                - Medicines grouped by formula
  GET  /api/medicines/stats          - Stock dashboard counts
  GET  /api/districts                - List districts
  GET  /api/districts/{id}/formulas  - Formulas sold in a district
  GET  /api/formulas                 - List formulas

Example:
  go run ./cmd/medinsights api
  go run ./cmd/medinsights api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MedInsights API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// Gateway to the external predictor
	gateway := prophet.New(cfg.Prophet.BaseURL, cfg.Prophet.Timeout, log)

	// Stores and services
	inventoryStore := inventory.NewStore(db.Pool)
	inventoryService := inventory.NewService(inventoryStore, log.Zerolog())

	historyStore := history.NewStore(db.Pool)
	aggregator := history.NewAggregator(historyStore, log.Zerolog())

	forecastStore := forecast.NewStore(db.Pool)
	resolver := forecast.NewResolver(forecastStore, gateway, aggregator,
		cfg.Forecast.TrendWindowDays, log.Zerolog())

	catalogService := catalog.NewService(catalog.NewStore(db.Pool))

	// Response cache and rate limiter degrade to no-ops without Redis
	cache := redis.NewCache(redisClient, "medinsights")

	var limiter api.Limiter = api.AllowAll{}
	if cfg.RateLimit.Enabled {
		if redisClient.Enabled() {
			limiter = api.NewRedisLimiter(redis.NewRateLimiter(redisClient, "medinsights"),
				cfg.RateLimit.Requests, cfg.RateLimit.Window)
		} else {
			limiter = api.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	// Handlers and router
	forecastHandler := handlers.NewForecastHandler(resolver, catalogService, aggregator,
		cache, cfg.Forecast.CacheTTL, cfg.Forecast.DefaultHorizonDays, cfg.Forecast.HistoryDays, log)
	salesHandler := handlers.NewSalesHandler(inventoryService, inventoryStore, log)
	catalogHandler := handlers.NewCatalogHandler(catalogService, log)

	router := api.NewRouter(forecastHandler, salesHandler, catalogHandler, limiter, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
