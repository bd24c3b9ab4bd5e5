package forecast

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/internal/external/prophet"
)

type fakeCombos struct {
	combos []Combo
}

func (f *fakeCombos) LookupCombos(ctx context.Context) ([]Combo, error) {
	return f.combos, nil
}

// perMedicineGateway fails for brands listed in down
type perMedicineGateway struct {
	down  map[string]bool
	calls int
}

func (g *perMedicineGateway) Forecast(ctx context.Context, area, medicine string, days int) (*prophet.Prediction, error) {
	g.calls++
	if g.down[medicine] {
		return nil, contracts.ErrUpstreamUnavailable
	}
	return &prophet.Prediction{
		Dates:  []string{"2024-01-01", "2024-01-02"},
		Values: []int64{10, 12},
	}, nil
}

func TestRefreshAll(t *testing.T) {
	combos := &fakeCombos{combos: []Combo{
		{DistrictID: 3, DistrictName: "Dhaka", MedicineID: 1, BrandName: "Napa"},
		{DistrictID: 3, DistrictName: "Dhaka", MedicineID: 2, BrandName: "Ace"},
		{DistrictID: 4, DistrictName: "Khulna", MedicineID: 1, BrandName: "Napa"},
	}}
	gateway := &perMedicineGateway{}
	store := newFakeForecastStore()

	refresher := NewRefresher(combos, gateway, store, 2, zerolog.Nop())
	stats, err := refresher.RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Combos)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 6, stats.Entries)
	assert.Equal(t, 3, gateway.calls)

	entries := store.allEntries()
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, contracts.SourceProphet, e.ModelVersion)
		assert.False(t, e.ForecastDate.Before(today()))
	}
}

func TestRefreshAll_FailedPairSkipped(t *testing.T) {
	combos := &fakeCombos{combos: []Combo{
		{DistrictID: 3, DistrictName: "Dhaka", MedicineID: 1, BrandName: "Napa"},
		{DistrictID: 3, DistrictName: "Dhaka", MedicineID: 2, BrandName: "Broken"},
	}}
	gateway := &perMedicineGateway{down: map[string]bool{"Broken": true}}
	store := newFakeForecastStore()

	refresher := NewRefresher(combos, gateway, store, 2, zerolog.Nop())
	stats, err := refresher.RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, store.allEntries(), 2)
}

func TestRefreshAll_Cancelled(t *testing.T) {
	combos := &fakeCombos{combos: []Combo{
		{DistrictID: 3, DistrictName: "Dhaka", MedicineID: 1, BrandName: "Napa"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refresher := NewRefresher(combos, &perMedicineGateway{}, newFakeForecastStore(), 2, zerolog.Nop())
	_, err := refresher.RefreshAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
