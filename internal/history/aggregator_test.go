package history

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/internal/contracts"
)

type fakeStore struct {
	lookupIDs  []int64
	formulaIDs []int64
	sales      []contracts.SalesRecord
}

func (f *fakeStore) LookupMedicineIDs(ctx context.Context, districtID, formulaID int64) ([]int64, error) {
	return f.lookupIDs, nil
}

func (f *fakeStore) FormulaMedicineIDs(ctx context.Context, formulaID int64) ([]int64, error) {
	return f.formulaIDs, nil
}

func (f *fakeStore) DailyTotals(ctx context.Context, districtID int64, medicineIDs []int64, since time.Time) ([]contracts.DatedQuantity, error) {
	inScope := make(map[int64]bool, len(medicineIDs))
	for _, id := range medicineIDs {
		inScope[id] = true
	}

	totals := make(map[time.Time]int64)
	for _, rec := range f.sales {
		if rec.DistrictID != districtID || !inScope[rec.MedicineID] {
			continue
		}
		if !since.IsZero() && rec.Date.Before(since) {
			continue
		}
		totals[rec.Date] += rec.Quantity
	}

	var dates []time.Time
	for d := range totals {
		dates = append(dates, d)
	}
	for i := range dates {
		for j := i + 1; j < len(dates); j++ {
			if dates[j].Before(dates[i]) {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}

	var series []contracts.DatedQuantity
	for _, d := range dates {
		series = append(series, contracts.DatedQuantity{Date: d, Quantity: totals[d]})
	}
	return series, nil
}

func day(offset int) time.Time {
	base := time.Now().UTC()
	d := base.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func TestScopeMedicineIDs_LookupWins(t *testing.T) {
	store := &fakeStore{lookupIDs: []int64{1, 2}, formulaIDs: []int64{1, 2, 3, 4}}
	agg := NewAggregator(store, zerolog.Nop())

	ids, scope, err := agg.ScopeMedicineIDs(context.Background(), 3, 7)
	require.NoError(t, err)

	assert.Equal(t, ScopeLookupRestricted, scope)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestScopeMedicineIDs_WidensToFormula(t *testing.T) {
	store := &fakeStore{formulaIDs: []int64{1, 2, 3}}
	agg := NewAggregator(store, zerolog.Nop())

	ids, scope, err := agg.ScopeMedicineIDs(context.Background(), 3, 7)
	require.NoError(t, err)

	assert.Equal(t, ScopeFormulaWide, scope)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestDailySeries_SumsAcrossMedicinesAscending(t *testing.T) {
	store := &fakeStore{
		sales: []contracts.SalesRecord{
			{MedicineID: 1, DistrictID: 3, Date: day(-2), Quantity: 10},
			{MedicineID: 2, DistrictID: 3, Date: day(-2), Quantity: 5},
			{MedicineID: 1, DistrictID: 3, Date: day(-1), Quantity: 7},
			{MedicineID: 9, DistrictID: 3, Date: day(-1), Quantity: 100}, // out of scope
			{MedicineID: 1, DistrictID: 4, Date: day(-1), Quantity: 50},  // other district
		},
	}
	agg := NewAggregator(store, zerolog.Nop())

	series, err := agg.DailySeries(context.Background(), 3, []int64{1, 2}, 365)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, int64(15), series[0].Quantity)
	assert.Equal(t, int64(7), series[1].Quantity)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestDailySeries_FallsBackToFullHistory(t *testing.T) {
	// All sales predate the window; the aggregator widens rather than
	// reporting nothing.
	store := &fakeStore{
		sales: []contracts.SalesRecord{
			{MedicineID: 1, DistrictID: 3, Date: day(-400), Quantity: 20},
			{MedicineID: 1, DistrictID: 3, Date: day(-399), Quantity: 30},
		},
	}
	agg := NewAggregator(store, zerolog.Nop())

	series, err := agg.DailySeries(context.Background(), 3, []int64{1}, 365)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, int64(20), series[0].Quantity)
	assert.Equal(t, int64(30), series[1].Quantity)
}

func TestDailySeries_EmptyScope(t *testing.T) {
	agg := NewAggregator(&fakeStore{}, zerolog.Nop())

	series, err := agg.DailySeries(context.Background(), 3, nil, 365)
	require.NoError(t, err)
	assert.Empty(t, series)
}
