package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsights/backend/internal/contracts"
)

// PgStore persists forecast entries in PostgreSQL
type PgStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new forecast store
func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// AggregateByDate sums stored forecast quantities per date for the given
// medicines in the district over [from, to), ascending by date.
func (s *PgStore) AggregateByDate(ctx context.Context, districtID int64, medicineIDs []int64, from, to time.Time) ([]contracts.DatedQuantity, error) {
	if len(medicineIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT forecast_date, SUM(forecasted_quantity)
		FROM medicine_forecasts
		WHERE district_id = $1
		  AND medicine_id = ANY($2)
		  AND forecast_date >= $3
		  AND forecast_date < $4
		GROUP BY forecast_date
		ORDER BY forecast_date ASC`

	rows, err := s.pool.Query(ctx, query, districtID, medicineIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate forecasts: %w", err)
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

// LookupCombos lists the distinct (district, medicine) pairs in the
// lookup table with the names the external predictor expects.
func (s *PgStore) LookupCombos(ctx context.Context) ([]Combo, error) {
	query := `
		SELECT DISTINCT d.id, d.name, m.id, m.brand_name
		FROM district_medicine_lookup dml
		JOIN districts d ON d.id = dml.district_id
		JOIN medicines m ON m.id = dml.medicine_id
		ORDER BY d.name, m.brand_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lookup combos: %w", err)
	}
	defer rows.Close()

	var combos []Combo
	for rows.Next() {
		var c Combo
		if err := rows.Scan(&c.DistrictID, &c.DistrictName, &c.MedicineID, &c.BrandName); err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}

	return combos, rows.Err()
}

// UpsertEntries writes forecast entries in one batch, overwriting any
// existing entry for the same (medicine, district, forecast_date).
func (s *PgStore) UpsertEntries(ctx context.Context, entries []contracts.ForecastEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO medicine_forecasts
				(medicine_id, district_id, forecast_date, forecasted_quantity, model_version, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (medicine_id, district_id, forecast_date)
			DO UPDATE SET
				forecasted_quantity = EXCLUDED.forecasted_quantity,
				model_version = EXCLUDED.model_version,
				created_at = NOW()`,
			e.MedicineID, e.DistrictID, e.ForecastDate, e.ForecastedQuantity, e.ModelVersion,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert forecast entry: %w", err)
		}
	}

	return nil
}
