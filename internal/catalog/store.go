package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsights/backend/internal/contracts"
)

// PgStore reads catalog data from PostgreSQL
type PgStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new catalog store
func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// ListDistricts returns all districts ordered by name
func (s *PgStore) ListDistricts(ctx context.Context) ([]contracts.District, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM districts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	var districts []contracts.District
	for rows.Next() {
		var d contracts.District
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}

	return districts, rows.Err()
}

// ListFormulas returns all formulas ordered by name
func (s *PgStore) ListFormulas(ctx context.Context) ([]contracts.Formula, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(therapeutic_class, '') FROM formulas ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list formulas: %w", err)
	}
	defer rows.Close()

	var formulas []contracts.Formula
	for rows.Next() {
		var f contracts.Formula
		if err := rows.Scan(&f.ID, &f.Name, &f.TherapeuticClass); err != nil {
			return nil, err
		}
		formulas = append(formulas, f)
	}

	return formulas, rows.Err()
}

// DistrictByName finds a district by case-insensitive name
func (s *PgStore) DistrictByName(ctx context.Context, name string) (*contracts.District, error) {
	var d contracts.District
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM districts WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&d.ID, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find district: %w", err)
	}

	return &d, nil
}

// DistrictByID finds a district by id
func (s *PgStore) DistrictByID(ctx context.Context, id int64) (*contracts.District, error) {
	var d contracts.District
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM districts WHERE id = $1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find district: %w", err)
	}

	return &d, nil
}

// FormulaByNames finds a formula whose name matches any candidate,
// case-insensitively.
func (s *PgStore) FormulaByNames(ctx context.Context, candidates []string) (*contracts.Formula, error) {
	var f contracts.Formula
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(therapeutic_class, '')
		 FROM formulas
		 WHERE LOWER(name) IN (SELECT LOWER(unnest($1::text[])))`,
		candidates,
	).Scan(&f.ID, &f.Name, &f.TherapeuticClass)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find formula: %w", err)
	}

	return &f, nil
}

// ListMedicines returns every medicine with its formula name, ordered
// by formula name.
func (s *PgStore) ListMedicines(ctx context.Context) ([]MedicineRow, error) {
	query := `
		SELECT m.id, m.formula_id, f.name, m.brand_name, COALESCE(m.dosage, ''), m.stock_level
		FROM medicines m
		JOIN formulas f ON f.id = m.formula_id
		ORDER BY f.name ASC, m.brand_name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	var medicines []MedicineRow
	for rows.Next() {
		var m MedicineRow
		if err := rows.Scan(&m.ID, &m.FormulaID, &m.FormulaName, &m.BrandName, &m.Dosage, &m.StockLevel); err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}

	return medicines, rows.Err()
}

// BrandNames returns the brand names of the given medicines, ordered
// by id.
func (s *PgStore) BrandNames(ctx context.Context, medicineIDs []int64) ([]string, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT brand_name FROM medicines WHERE id = ANY($1) ORDER BY id`, medicineIDs)
	if err != nil {
		return nil, fmt.Errorf("brand names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// ForecastTotals sums stored forecast quantities per medicine across
// all districts over [from, to).
func (s *PgStore) ForecastTotals(ctx context.Context, from, to time.Time) (map[int64]int64, error) {
	query := `
		SELECT medicine_id, SUM(forecasted_quantity)
		FROM medicine_forecasts
		WHERE forecast_date >= $1 AND forecast_date < $2
		GROUP BY medicine_id`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("forecast totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int64)
	for rows.Next() {
		var id, total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, err
		}
		totals[id] = total
	}

	return totals, rows.Err()
}

// DistrictFormulas returns the formulas whose medicines have recorded
// sales in the district.
func (s *PgStore) DistrictFormulas(ctx context.Context, districtID int64) ([]contracts.Formula, error) {
	query := `
		SELECT DISTINCT f.id, f.name, COALESCE(f.therapeutic_class, '')
		FROM formulas f
		JOIN medicines m ON m.formula_id = f.id
		JOIN medicine_sales ms ON ms.medicine_id = m.id
		WHERE ms.district_id = $1
		ORDER BY f.name ASC`

	rows, err := s.pool.Query(ctx, query, districtID)
	if err != nil {
		return nil, fmt.Errorf("district formulas: %w", err)
	}
	defer rows.Close()

	var formulas []contracts.Formula
	for rows.Next() {
		var f contracts.Formula
		if err := rows.Scan(&f.ID, &f.Name, &f.TherapeuticClass); err != nil {
			return nil, err
		}
		formulas = append(formulas, f)
	}

	return formulas, rows.Err()
}
