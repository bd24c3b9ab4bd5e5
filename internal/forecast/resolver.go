package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/internal/external/prophet"
	"github.com/medinsights/backend/internal/history"
)

// Store is the persistence surface the resolver needs
type Store interface {
	AggregateByDate(ctx context.Context, districtID int64, medicineIDs []int64, from, to time.Time) ([]contracts.DatedQuantity, error)
	UpsertEntries(ctx context.Context, entries []contracts.ForecastEntry) error
}

// Gateway is the external predictor surface
type Gateway interface {
	Forecast(ctx context.Context, area, medicine string, days int) (*prophet.Prediction, error)
}

// History scopes medicines and aggregates their sales
type History interface {
	ScopeMedicineIDs(ctx context.Context, districtID, formulaID int64) ([]int64, history.Scope, error)
	FormulaScope(ctx context.Context, formulaID int64) ([]int64, error)
	DailySeries(ctx context.Context, districtID int64, medicineIDs []int64, windowDays int) ([]contracts.DatedQuantity, error)
}

// Resolver runs the forecast cascade: stored entries win, then the
// external predictor, then the trend model over historical sales.
// Tiers are mutually exclusive; the first that produces data answers.
type Resolver struct {
	store           Store
	gateway         Gateway
	history         History
	trendWindowDays int
	log             zerolog.Logger
}

// NewResolver creates a forecast resolver
func NewResolver(store Store, gateway Gateway, hist History, trendWindowDays int, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:           store,
		gateway:         gateway,
		history:         hist,
		trendWindowDays: trendWindowDays,
		log:             log.With().Str("component", "forecast.resolver").Logger(),
	}
}

// Resolve produces a per-date forecast for the formula in the district
// over [today, today+days). Computed tiers persist their entries
// write-through, so the next resolution of the same window answers from
// the stored tier with identical values.
func (r *Resolver) Resolve(ctx context.Context, district contracts.District, formula contracts.Formula, days int) (*contracts.ForecastResult, error) {
	if days < 1 || days > 365 {
		return nil, contracts.NewValidationError("days", "must be between 1 and 365")
	}

	scope, _, err := r.history.ScopeMedicineIDs(ctx, district.ID, formula.ID)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return nil, contracts.NewNotFoundError("medicines",
			fmt.Sprintf("formula %q in district %q", formula.Name, district.Name),
			"Add medicines for this formula first")
	}

	start := today()
	end := start.AddDate(0, 0, days)

	result := &contracts.ForecastResult{
		District:      district,
		Formula:       formula,
		Days:          days,
		MedicineIDs:   scope,
		ForecastStart: start,
		ForecastEnd:   end.AddDate(0, 0, -1),
	}

	// Tier 1: stored entries
	stored, err := r.store.AggregateByDate(ctx, district.ID, scope, start, end)
	if err != nil {
		return nil, fmt.Errorf("query stored forecasts: %w", err)
	}
	if len(stored) > 0 {
		result.Source = contracts.SourceStored
		for _, dq := range stored {
			result.Points = append(result.Points, contracts.ForecastPoint{
				Date:              dq.Date,
				PredictedQuantity: dq.Quantity,
				Source:            contracts.SourceStored,
			})
		}
		r.finish(result)
		return result, nil
	}

	// Tier 2: external predictor
	pred, err := r.gateway.Forecast(ctx, district.Name, formula.Name, days)
	if err == nil {
		r.fromExternal(ctx, result, pred, start)
		r.finish(result)
		return result, nil
	}
	r.log.Debug().
		Err(err).
		Str("area", district.Name).
		Str("formula", formula.Name).
		Msg("external predictor unavailable, falling back to trend")

	// Tier 3: trend over historical sales
	if err := r.fromTrend(ctx, result, start, days); err != nil {
		return nil, err
	}
	r.finish(result)
	return result, nil
}

// fromExternal builds the response from an external prediction. Dates
// in the payload reflect the predictor's training window, so entries are
// keyed positionally from today instead. Each day's aggregate is split
// evenly across the member medicines before persisting; the response
// keeps the unsplit aggregates.
func (r *Resolver) fromExternal(ctx context.Context, result *contracts.ForecastResult, pred *prophet.Prediction, start time.Time) {
	result.Source = contracts.SourceProphet
	count := int64(len(result.MedicineIDs))

	var entries []contracts.ForecastEntry
	for i, value := range pred.Values {
		date := start.AddDate(0, 0, i)
		result.Points = append(result.Points, contracts.ForecastPoint{
			Date:              date,
			PredictedQuantity: value,
			Source:            contracts.SourceProphet,
		})

		share := value / count
		for _, medicineID := range result.MedicineIDs {
			entries = append(entries, contracts.ForecastEntry{
				MedicineID:         medicineID,
				DistrictID:         result.District.ID,
				ForecastDate:       date,
				ForecastedQuantity: share,
				ModelVersion:       contracts.SourceProphet,
			})
		}
	}

	r.persist(ctx, result, entries)
}

// fromTrend builds a flat forecast from the formula-wide sales history
func (r *Resolver) fromTrend(ctx context.Context, result *contracts.ForecastResult, start time.Time, days int) error {
	chartScope, err := r.history.FormulaScope(ctx, result.Formula.ID)
	if err != nil {
		return err
	}

	series, err := r.history.DailySeries(ctx, result.District.ID, chartScope, r.trendWindowDays)
	if err != nil {
		return err
	}

	trend, err := ComputeTrend(series)
	if err != nil {
		return err
	}

	result.Source = contracts.SourceTrend
	count := int64(len(result.MedicineIDs))
	share := trend.Predicted / count

	var entries []contracts.ForecastEntry
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		result.Points = append(result.Points, contracts.ForecastPoint{
			Date:              date,
			PredictedQuantity: trend.Predicted,
			Source:            contracts.SourceTrend,
		})

		for _, medicineID := range result.MedicineIDs {
			entries = append(entries, contracts.ForecastEntry{
				MedicineID:         medicineID,
				DistrictID:         result.District.ID,
				ForecastDate:       date,
				ForecastedQuantity: share,
				ModelVersion:       contracts.SourceTrend,
			})
		}
	}

	r.log.Debug().
		Str("avg_daily", trend.AvgDaily.StringFixed(2)).
		Str("trend_factor", trend.TrendFactor.StringFixed(4)).
		Int64("predicted", trend.Predicted).
		Msg("trend forecast computed")

	r.persist(ctx, result, entries)
	return nil
}

// persist caches computed entries write-through. A failure here is
// logged and swallowed: the computed response already in hand is the
// source of truth for this request.
func (r *Resolver) persist(ctx context.Context, result *contracts.ForecastResult, entries []contracts.ForecastEntry) {
	if err := r.store.UpsertEntries(ctx, entries); err != nil {
		r.log.Warn().
			Err(err).
			Int64("district_id", result.District.ID).
			Int64("formula_id", result.Formula.ID).
			Int("entries", len(entries)).
			Msg("forecast persistence failed, serving unpersisted result")
	}
}

// finish fills the summary fields from the assembled points
func (r *Resolver) finish(result *contracts.ForecastResult) {
	var total int64
	for _, p := range result.Points {
		total += p.PredictedQuantity
	}
	result.TotalForecast = total
	if len(result.Points) > 0 {
		avg := float64(total) / float64(len(result.Points))
		result.AvgDaily = math.Round(avg*100) / 100
	}
}

// today is the first forecast date, normalized to UTC midnight
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
