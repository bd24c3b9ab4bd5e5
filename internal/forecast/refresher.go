package forecast

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medinsights/backend/internal/contracts"
)

// Combo is one (district, medicine) pair from the lookup table
type Combo struct {
	DistrictID   int64
	DistrictName string
	MedicineID   int64
	BrandName    string
}

// ComboSource lists the pairs eligible for refresh
type ComboSource interface {
	LookupCombos(ctx context.Context) ([]Combo, error)
}

// RefreshStats summarizes a refresh run
type RefreshStats struct {
	Combos    int
	Succeeded int
	Failed    int
	Entries   int
}

// Refresher pre-populates stored forecasts from the external predictor
// for every (district, medicine) pair in the lookup table. A failing
// pair is counted and skipped; the run itself never fails on upstream
// trouble.
type Refresher struct {
	combos  ComboSource
	gateway Gateway
	store   Store
	days    int
	log     zerolog.Logger
}

// NewRefresher creates a forecast refresher
func NewRefresher(combos ComboSource, gateway Gateway, store Store, days int, log zerolog.Logger) *Refresher {
	return &Refresher{
		combos:  combos,
		gateway: gateway,
		store:   store,
		days:    days,
		log:     log.With().Str("component", "forecast.refresher").Logger(),
	}
}

// RefreshAll fetches and stores predictions for every lookup pair
func (r *Refresher) RefreshAll(ctx context.Context) (*RefreshStats, error) {
	combos, err := r.combos.LookupCombos(ctx)
	if err != nil {
		return nil, err
	}

	stats := &RefreshStats{Combos: len(combos)}
	start := today()

	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pred, err := r.gateway.Forecast(ctx, combo.DistrictName, combo.BrandName, r.days)
		if err != nil {
			stats.Failed++
			r.log.Warn().
				Err(err).
				Str("district", combo.DistrictName).
				Str("medicine", combo.BrandName).
				Msg("prediction fetch failed, skipping pair")
			continue
		}

		// Entries are keyed positionally from today; the predictor's
		// dates reflect its training window and are ignored.
		entries := make([]contracts.ForecastEntry, 0, len(pred.Values))
		for i, value := range pred.Values {
			entries = append(entries, contracts.ForecastEntry{
				MedicineID:         combo.MedicineID,
				DistrictID:         combo.DistrictID,
				ForecastDate:       start.AddDate(0, 0, i),
				ForecastedQuantity: value,
				ModelVersion:       contracts.SourceProphet,
			})
		}

		if err := r.store.UpsertEntries(ctx, entries); err != nil {
			stats.Failed++
			r.log.Warn().
				Err(err).
				Str("district", combo.DistrictName).
				Str("medicine", combo.BrandName).
				Msg("forecast upsert failed, skipping pair")
			continue
		}

		stats.Succeeded++
		stats.Entries += len(entries)
	}

	r.log.Info().
		Int("combos", stats.Combos).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("entries", stats.Entries).
		Msg("forecast refresh finished")

	return stats, nil
}
