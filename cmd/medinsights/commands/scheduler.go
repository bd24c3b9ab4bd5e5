package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medinsights/backend/internal/external/prophet"
	"github.com/medinsights/backend/internal/forecast"
	"github.com/medinsights/backend/internal/scheduler"
	"github.com/medinsights/backend/internal/scheduler/jobs"
	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/database"
	"github.com/medinsights/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Run the cron scheduler hosting the background jobs.

Jobs:
  forecast_refresh - nightly refresh of stored forecasts from the
                     external predictor (FORECAST_REFRESH_SCHEDULE)

Example:
  go run ./cmd/medinsights scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MedInsights Scheduler ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	gateway := prophet.New(cfg.Prophet.BaseURL, cfg.Prophet.Timeout, log)
	forecastStore := forecast.NewStore(db.Pool)
	refresher := forecast.NewRefresher(forecastStore, gateway, forecastStore,
		cfg.Forecast.DefaultHorizonDays, log.Zerolog())

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewForecastRefreshJob(refresher, cfg.Forecast.RefreshSchedule, log)); err != nil {
		return fmt.Errorf("register forecast refresh job: %w", err)
	}

	sched.Start()

	fmt.Println("\nScheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
