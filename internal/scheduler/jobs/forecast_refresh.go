// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"

	"github.com/medinsights/backend/internal/forecast"
	"github.com/medinsights/backend/pkg/logger"
)

// ForecastRefreshJob refreshes stored forecasts from the external
// predictor for every (district, medicine) pair in the lookup table.
// Runs nightly so the stored tier answers daytime traffic.
type ForecastRefreshJob struct {
	refresher *forecast.Refresher
	schedule  string
	logger    *logger.Logger
}

// NewForecastRefreshJob creates a new forecast refresh job
func NewForecastRefreshJob(refresher *forecast.Refresher, schedule string, log *logger.Logger) *ForecastRefreshJob {
	return &ForecastRefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *ForecastRefreshJob) Name() string {
	return "forecast_refresh"
}

// Schedule returns the cron schedule
func (j *ForecastRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one refresh pass. Per-pair failures are already counted
// and skipped inside the refresher; only total failure to start the run
// is an error.
func (j *ForecastRefreshJob) Run(ctx context.Context) error {
	stats, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"combos":    stats.Combos,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"entries":   stats.Entries,
	}).Info("Scheduled forecast refresh completed")

	return nil
}
