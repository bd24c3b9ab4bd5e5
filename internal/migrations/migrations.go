// Package migrations creates the database schema.
package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run creates the schema required by the MedInsights backend
func Run(ctx context.Context, pool *pgxpool.Pool) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS districts (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS formulas (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			therapeutic_class TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS medicines (
			id BIGSERIAL PRIMARY KEY,
			formula_id BIGINT NOT NULL REFERENCES formulas(id),
			brand_name TEXT NOT NULL,
			dosage TEXT,
			stock_level BIGINT NOT NULL DEFAULT 0 CHECK (stock_level >= 0)
		);`,
		`CREATE TABLE IF NOT EXISTS medicine_sales (
			id BIGSERIAL PRIMARY KEY,
			medicine_id BIGINT NOT NULL REFERENCES medicines(id),
			district_id BIGINT NOT NULL REFERENCES districts(id),
			date DATE NOT NULL,
			quantity BIGINT NOT NULL CHECK (quantity > 0),
			UNIQUE (medicine_id, district_id, date)
		);`,
		`CREATE TABLE IF NOT EXISTS medicine_forecasts (
			id BIGSERIAL PRIMARY KEY,
			medicine_id BIGINT NOT NULL REFERENCES medicines(id),
			district_id BIGINT NOT NULL REFERENCES districts(id),
			forecast_date DATE NOT NULL,
			forecasted_quantity BIGINT NOT NULL CHECK (forecasted_quantity >= 0),
			model_version TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (medicine_id, district_id, forecast_date)
		);`,
		`CREATE TABLE IF NOT EXISTS district_medicine_lookup (
			id BIGSERIAL PRIMARY KEY,
			district_id BIGINT NOT NULL REFERENCES districts(id),
			medicine_id BIGINT NOT NULL REFERENCES medicines(id),
			formula_id BIGINT NOT NULL REFERENCES formulas(id),
			UNIQUE (district_id, medicine_id, formula_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_medicine_sales_district_date
			ON medicine_sales (district_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_medicine_forecasts_district_date
			ON medicine_forecasts (district_id, forecast_date);`,
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
