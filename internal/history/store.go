package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsights/backend/internal/contracts"
)

// PgStore reads sales history from PostgreSQL
type PgStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new history store
func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// LookupMedicineIDs returns the medicines recorded in the lookup table
// for the district and formula.
func (s *PgStore) LookupMedicineIDs(ctx context.Context, districtID, formulaID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT medicine_id
		FROM district_medicine_lookup
		WHERE district_id = $1 AND formula_id = $2
		ORDER BY medicine_id`

	rows, err := s.pool.Query(ctx, query, districtID, formulaID)
	if err != nil {
		return nil, fmt.Errorf("lookup medicine ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// FormulaMedicineIDs returns every medicine of the formula
func (s *PgStore) FormulaMedicineIDs(ctx context.Context, formulaID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM medicines WHERE formula_id = $1 ORDER BY id`, formulaID)
	if err != nil {
		return nil, fmt.Errorf("formula medicine ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DailyTotals sums sales per date for the given medicines in the
// district, ascending by date. A zero since means no lower bound.
func (s *PgStore) DailyTotals(ctx context.Context, districtID int64, medicineIDs []int64, since time.Time) ([]contracts.DatedQuantity, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT date, SUM(quantity)
		FROM medicine_sales
		WHERE district_id = $1
		  AND medicine_id = ANY($2)
		  AND ($3::date IS NULL OR date >= $3)
		GROUP BY date
		ORDER BY date ASC`

	var lower *time.Time
	if !since.IsZero() {
		lower = &since
	}

	rows, err := s.pool.Query(ctx, query, districtID, medicineIDs, lower)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var series []contracts.DatedQuantity
	for rows.Next() {
		var dq contracts.DatedQuantity
		if err := rows.Scan(&dq.Date, &dq.Quantity); err != nil {
			return nil, err
		}
		series = append(series, dq)
	}

	return series, rows.Err()
}
