package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medinsights/backend/internal/contracts"
)

// Scope says which medicines back an aggregated series
type Scope string

const (
	// ScopeLookupRestricted covers only medicines previously observed
	// in the district via the lookup table.
	ScopeLookupRestricted Scope = "lookup"

	// ScopeFormulaWide covers every medicine of the formula
	ScopeFormulaWide Scope = "formula"
)

// Store is the read surface the aggregator needs
type Store interface {
	LookupMedicineIDs(ctx context.Context, districtID, formulaID int64) ([]int64, error)
	FormulaMedicineIDs(ctx context.Context, formulaID int64) ([]int64, error)
	DailyTotals(ctx context.Context, districtID int64, medicineIDs []int64, since time.Time) ([]contracts.DatedQuantity, error)
}

// Aggregator builds per-date sales totals for a district and formula
type Aggregator struct {
	store Store
	log   zerolog.Logger
}

// NewAggregator creates a sales history aggregator
func NewAggregator(store Store, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		store: store,
		log:   log.With().Str("component", "history.aggregator").Logger(),
	}
}

// ScopeMedicineIDs resolves which medicines represent the formula in the
// district. Lookup-table members win when any exist; otherwise the scope
// widens to every medicine of the formula.
func (a *Aggregator) ScopeMedicineIDs(ctx context.Context, districtID, formulaID int64) ([]int64, Scope, error) {
	ids, err := a.store.LookupMedicineIDs(ctx, districtID, formulaID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve medicine scope: %w", err)
	}
	if len(ids) > 0 {
		return ids, ScopeLookupRestricted, nil
	}

	ids, err = a.store.FormulaMedicineIDs(ctx, formulaID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve medicine scope: %w", err)
	}

	return ids, ScopeFormulaWide, nil
}

// ChartSeries returns the trailing windowDays of totals with no
// widening; a sparse chart window stays sparse.
func (a *Aggregator) ChartSeries(ctx context.Context, districtID int64, medicineIDs []int64, windowDays int) ([]contracts.DatedQuantity, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	return a.store.DailyTotals(ctx, districtID, medicineIDs, since)
}

// FormulaScope returns every medicine of the formula, ignoring the
// lookup table.
func (a *Aggregator) FormulaScope(ctx context.Context, formulaID int64) ([]int64, error) {
	return a.store.FormulaMedicineIDs(ctx, formulaID)
}

// DailySeries returns ascending per-date totals for the medicines in the
// district. The series is limited to the trailing windowDays first; when
// that window holds nothing the whole history is consulted, so old but
// real data still produces a series.
func (a *Aggregator) DailySeries(ctx context.Context, districtID int64, medicineIDs []int64, windowDays int) ([]contracts.DatedQuantity, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}

	var since time.Time
	if windowDays > 0 {
		since = time.Now().UTC().AddDate(0, 0, -windowDays)
	}

	series, err := a.store.DailyTotals(ctx, districtID, medicineIDs, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily sales: %w", err)
	}

	if len(series) == 0 && !since.IsZero() {
		a.log.Debug().
			Int64("district_id", districtID).
			Int("window_days", windowDays).
			Msg("no sales inside window, widening to full history")

		series, err = a.store.DailyTotals(ctx, districtID, medicineIDs, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("aggregate daily sales: %w", err)
		}
	}

	return series, nil
}
