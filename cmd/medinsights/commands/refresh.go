package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medinsights/backend/internal/external/prophet"
	"github.com/medinsights/backend/internal/forecast"
	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/database"
	"github.com/medinsights/backend/pkg/logger"
)

// refreshCmd represents the refresh-forecasts command
var refreshCmd = &cobra.Command{
	Use:   "refresh-forecasts",
	Short: "Refresh stored forecasts from the external predictor",
	Long: `One-shot refresh of stored forecasts.

Calls the external Prophet service for every (district, medicine) pair
in the lookup table and upserts the returned predictions, keyed from
today. Pairs the predictor cannot serve are counted and skipped.

Example:
  go run ./cmd/medinsights refresh-forecasts
  go run ./cmd/medinsights refresh-forecasts --days 60`,
	RunE: runRefreshForecasts,
}

var refreshDays int

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVar(&refreshDays, "days", 0, "forecast horizon in days (default from config)")
}

func runRefreshForecasts(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MedInsights Forecast Refresh ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	days := cfg.Forecast.DefaultHorizonDays
	if refreshDays > 0 {
		days = refreshDays
	}
	if days < 1 || days > 365 {
		return fmt.Errorf("days must be between 1 and 365, got %d", days)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	gateway := prophet.New(cfg.Prophet.BaseURL, cfg.Prophet.Timeout, log)
	forecastStore := forecast.NewStore(db.Pool)
	refresher := forecast.NewRefresher(forecastStore, gateway, forecastStore, days, log.Zerolog())

	stats, err := refresher.RefreshAll(cmd.Context())
	if err != nil && err != context.Canceled {
		return fmt.Errorf("refresh forecasts: %w", err)
	}

	fmt.Printf("\nPairs:     %d\n", stats.Combos)
	fmt.Printf("Succeeded: %d\n", stats.Succeeded)
	fmt.Printf("Failed:    %d\n", stats.Failed)
	fmt.Printf("Entries:   %d\n", stats.Entries)

	return nil
}
