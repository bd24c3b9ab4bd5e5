// Package catalog resolves and lists districts, formulas and medicines.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/medinsights/backend/internal/contracts"
)

// MedicineRow is a medicine joined with its formula name
type MedicineRow struct {
	ID          int64  `json:"id"`
	FormulaID   int64  `json:"formulaId"`
	FormulaName string `json:"formulaName"`
	BrandName   string `json:"brandName"`
	Dosage      string `json:"dosageStrength,omitempty"`
	StockLevel  int64  `json:"stockLevel"`

	// Forecast14Days sums the stored forecast across all districts
	// for the next two weeks.
	Forecast14Days int64 `json:"forecast14Days"`
}

// Stats are dashboard stock counts. Low stock means the current level
// does not cover the stored 14-day forecast.
type Stats struct {
	Total      int `json:"total"`
	InStock    int `json:"inStock"`
	LowStock   int `json:"lowStock"`
	OutOfStock int `json:"outOfStock"`
}

// statsWindowDays is the forecast window behind the stats and listing
const statsWindowDays = 14

// Store is the persistence surface the catalog needs
type Store interface {
	ListDistricts(ctx context.Context) ([]contracts.District, error)
	ListFormulas(ctx context.Context) ([]contracts.Formula, error)
	DistrictByName(ctx context.Context, name string) (*contracts.District, error)
	DistrictByID(ctx context.Context, id int64) (*contracts.District, error)
	FormulaByNames(ctx context.Context, candidates []string) (*contracts.Formula, error)
	BrandNames(ctx context.Context, medicineIDs []int64) ([]string, error)
	ListMedicines(ctx context.Context) ([]MedicineRow, error)
	ForecastTotals(ctx context.Context, from, to time.Time) (map[int64]int64, error)
	DistrictFormulas(ctx context.Context, districtID int64) ([]contracts.Formula, error)
}

// Service answers catalog reads and resolves names to entities
type Service struct {
	store Store
}

// NewService creates a catalog service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Districts lists all districts
func (s *Service) Districts(ctx context.Context) ([]contracts.District, error) {
	return s.store.ListDistricts(ctx)
}

// Formulas lists all formulas
func (s *Service) Formulas(ctx context.Context) ([]contracts.Formula, error) {
	return s.store.ListFormulas(ctx)
}

// ResolveDistrict finds a district by case-insensitive name
func (s *Service) ResolveDistrict(ctx context.Context, name string) (*contracts.District, error) {
	district, err := s.store.DistrictByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if district == nil {
		return nil, contracts.NewNotFoundError("District", name,
			"Check available districts via GET /api/districts")
	}
	return district, nil
}

// ResolveFormula finds a formula by case-insensitive name. Underscores
// and spaces are interchangeable, so "Acetylsalicylic_Acid" matches
// "Acetylsalicylic Acid" and the reverse.
func (s *Service) ResolveFormula(ctx context.Context, name string) (*contracts.Formula, error) {
	candidates := []string{
		name,
		strings.ReplaceAll(name, "_", " "),
		strings.ReplaceAll(name, " ", "_"),
	}

	formula, err := s.store.FormulaByNames(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if formula == nil {
		return nil, contracts.NewNotFoundError("Formula", name,
			"Check available formulas via GET /api/formulas")
	}
	return formula, nil
}

// BrandNames returns brand names for the given medicine ids
func (s *Service) BrandNames(ctx context.Context, medicineIDs []int64) ([]string, error) {
	return s.store.BrandNames(ctx, medicineIDs)
}

// DistrictFormulas lists the formulas observed selling in a district
func (s *Service) DistrictFormulas(ctx context.Context, districtID int64) ([]contracts.Formula, error) {
	district, err := s.store.DistrictByID(ctx, districtID)
	if err != nil {
		return nil, err
	}
	if district == nil {
		return nil, contracts.NewNotFoundError("District", "by id",
			"Check available districts via GET /api/districts")
	}
	return s.store.DistrictFormulas(ctx, districtID)
}

// MedicinesByFormula lists every medicine grouped under its formula
// name, each annotated with its stored 14-day forecast.
func (s *Service) MedicinesByFormula(ctx context.Context) (map[string][]MedicineRow, error) {
	medicines, err := s.store.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.forecastWindowTotals(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]MedicineRow)
	for _, m := range medicines {
		m.Forecast14Days = totals[m.ID]
		grouped[m.FormulaName] = append(grouped[m.FormulaName], m)
	}

	return grouped, nil
}

// Stats classifies medicines by how stock covers the 14-day forecast
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	medicines, err := s.store.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.forecastWindowTotals(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(medicines)}
	for _, m := range medicines {
		switch {
		case m.StockLevel == 0:
			stats.OutOfStock++
		case m.StockLevel < totals[m.ID]:
			stats.LowStock++
		default:
			stats.InStock++
		}
	}

	return stats, nil
}

func (s *Service) forecastWindowTotals(ctx context.Context) (map[int64]int64, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.store.ForecastTotals(ctx, from, from.AddDate(0, 0, statsWindowDays))
}
