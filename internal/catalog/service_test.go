package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/internal/contracts"
)

type fakeStore struct {
	districts []contracts.District
	formulas  []contracts.Formula
	medicines []MedicineRow
	forecasts map[int64]int64
}

func (f *fakeStore) ListDistricts(ctx context.Context) ([]contracts.District, error) {
	return f.districts, nil
}

func (f *fakeStore) ListFormulas(ctx context.Context) ([]contracts.Formula, error) {
	return f.formulas, nil
}

func (f *fakeStore) DistrictByName(ctx context.Context, name string) (*contracts.District, error) {
	for _, d := range f.districts {
		if strings.EqualFold(d.Name, name) {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DistrictByID(ctx context.Context, id int64) (*contracts.District, error) {
	for _, d := range f.districts {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FormulaByNames(ctx context.Context, candidates []string) (*contracts.Formula, error) {
	for _, fo := range f.formulas {
		for _, c := range candidates {
			if strings.EqualFold(fo.Name, c) {
				found := fo
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) BrandNames(ctx context.Context, medicineIDs []int64) ([]string, error) {
	var names []string
	for _, id := range medicineIDs {
		for _, m := range f.medicines {
			if m.ID == id {
				names = append(names, m.BrandName)
			}
		}
	}
	return names, nil
}

func (f *fakeStore) ListMedicines(ctx context.Context) ([]MedicineRow, error) {
	return f.medicines, nil
}

func (f *fakeStore) ForecastTotals(ctx context.Context, from, to time.Time) (map[int64]int64, error) {
	return f.forecasts, nil
}

func (f *fakeStore) DistrictFormulas(ctx context.Context, districtID int64) ([]contracts.Formula, error) {
	return f.formulas, nil
}

func TestResolveDistrict_CaseInsensitive(t *testing.T) {
	svc := NewService(&fakeStore{districts: []contracts.District{{ID: 3, Name: "Bahadurabad"}}})

	district, err := svc.ResolveDistrict(context.Background(), "bahadurabad")
	require.NoError(t, err)
	assert.Equal(t, int64(3), district.ID)
	assert.Equal(t, "Bahadurabad", district.Name)
}

func TestResolveDistrict_NotFound(t *testing.T) {
	svc := NewService(&fakeStore{})

	_, err := svc.ResolveDistrict(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, contracts.IsNotFound(err))
}

func TestResolveFormula_UnderscoreAndSpaceInterchangeable(t *testing.T) {
	store := &fakeStore{formulas: []contracts.Formula{{ID: 7, Name: "Acetylsalicylic Acid"}}}
	svc := NewService(store)

	tests := []string{
		"Acetylsalicylic Acid",
		"Acetylsalicylic_Acid",
		"acetylsalicylic_acid",
		"ACETYLSALICYLIC ACID",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			formula, err := svc.ResolveFormula(context.Background(), name)
			require.NoError(t, err)
			assert.Equal(t, int64(7), formula.ID)
		})
	}
}

func TestResolveFormula_UnderscoreNamedFormula(t *testing.T) {
	store := &fakeStore{formulas: []contracts.Formula{{ID: 8, Name: "Co_Trimoxazole"}}}
	svc := NewService(store)

	formula, err := svc.ResolveFormula(context.Background(), "Co Trimoxazole")
	require.NoError(t, err)
	assert.Equal(t, int64(8), formula.ID)
}

func TestMedicinesByFormula_GroupsAndAnnotates(t *testing.T) {
	store := &fakeStore{
		medicines: []MedicineRow{
			{ID: 1, FormulaID: 7, FormulaName: "Paracetamol", BrandName: "Napa", StockLevel: 100},
			{ID: 2, FormulaID: 7, FormulaName: "Paracetamol", BrandName: "Ace", StockLevel: 50},
			{ID: 3, FormulaID: 8, FormulaName: "Ibuprofen", BrandName: "Flamex", StockLevel: 20},
		},
		forecasts: map[int64]int64{1: 150, 3: 40},
	}
	svc := NewService(store)

	grouped, err := svc.MedicinesByFormula(context.Background())
	require.NoError(t, err)

	require.Len(t, grouped, 2)
	require.Len(t, grouped["Paracetamol"], 2)
	assert.Equal(t, int64(150), grouped["Paracetamol"][0].Forecast14Days)
	assert.Equal(t, int64(0), grouped["Paracetamol"][1].Forecast14Days)
	assert.Equal(t, int64(40), grouped["Ibuprofen"][0].Forecast14Days)
}

func TestStats_Classification(t *testing.T) {
	store := &fakeStore{
		medicines: []MedicineRow{
			{ID: 1, StockLevel: 0},   // out of stock
			{ID: 2, StockLevel: 10},  // below its 14-day forecast of 40
			{ID: 3, StockLevel: 100}, // covered
			{ID: 4, StockLevel: 5},   // no forecast, covered
		},
		forecasts: map[int64]int64{2: 40, 3: 60},
	}
	svc := NewService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, 1, stats.LowStock)
	assert.Equal(t, 2, stats.InStock)
}
