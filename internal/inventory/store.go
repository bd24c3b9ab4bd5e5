package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsights/backend/internal/contracts"
)

// PgStore is the PostgreSQL-backed inventory store
type PgStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new inventory store
func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// InTx runs fn in a transaction, rolling back on any error
func (s *PgStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListSales returns sales records matching the optional filters,
// newest first.
func (s *PgStore) ListSales(ctx context.Context, medicineID, districtID int64, from, to time.Time) ([]contracts.SalesRecord, error) {
	query := `
		SELECT id, medicine_id, district_id, date, quantity
		FROM medicine_sales
		WHERE ($1 = 0 OR medicine_id = $1)
		  AND ($2 = 0 OR district_id = $2)
		  AND ($3::date IS NULL OR date >= $3)
		  AND ($4::date IS NULL OR date <= $4)
		ORDER BY date DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, medicineID, districtID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var records []contracts.SalesRecord
	for rows.Next() {
		var r contracts.SalesRecord
		if err := rows.Scan(&r.ID, &r.MedicineID, &r.DistrictID, &r.Date, &r.Quantity); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// pgTx implements Tx over a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) MedicineForUpdate(ctx context.Context, id int64) (*contracts.Medicine, error) {
	query := `
		SELECT id, formula_id, brand_name, dosage, stock_level
		FROM medicines
		WHERE id = $1
		FOR UPDATE`

	var m contracts.Medicine
	err := t.tx.QueryRow(ctx, query, id).Scan(&m.ID, &m.FormulaID, &m.BrandName, &m.Dosage, &m.StockLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.NewNotFoundError("medicine", strconv.FormatInt(id, 10), "")
	}
	if err != nil {
		return nil, fmt.Errorf("load medicine: %w", err)
	}

	return &m, nil
}

func (t *pgTx) District(ctx context.Context, id int64) (*contracts.District, error) {
	var d contracts.District
	err := t.tx.QueryRow(ctx, `SELECT id, name FROM districts WHERE id = $1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.NewNotFoundError("district", strconv.FormatInt(id, 10), "Check available districts via GET /api/districts")
	}
	if err != nil {
		return nil, fmt.Errorf("load district: %w", err)
	}

	return &d, nil
}

func (t *pgTx) SalesRecordForKey(ctx context.Context, medicineID, districtID int64, date time.Time) (*contracts.SalesRecord, error) {
	query := `
		SELECT id, medicine_id, district_id, date, quantity
		FROM medicine_sales
		WHERE medicine_id = $1 AND district_id = $2 AND date = $3`

	var r contracts.SalesRecord
	err := t.tx.QueryRow(ctx, query, medicineID, districtID, date).Scan(
		&r.ID, &r.MedicineID, &r.DistrictID, &r.Date, &r.Quantity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (t *pgTx) AdjustStock(ctx context.Context, medicineID, delta int64) (int64, error) {
	// The CHECK (stock_level >= 0) constraint backs up the ledger's
	// own invariant check.
	var level int64
	err := t.tx.QueryRow(ctx,
		`UPDATE medicines SET stock_level = stock_level + $2 WHERE id = $1 RETURNING stock_level`,
		medicineID, delta,
	).Scan(&level)
	if err != nil {
		return 0, err
	}

	return level, nil
}

func (t *pgTx) InsertSalesRecord(ctx context.Context, rec *contracts.SalesRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO medicine_sales (medicine_id, district_id, date, quantity)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		rec.MedicineID, rec.DistrictID, rec.Date, rec.Quantity,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (t *pgTx) UpdateSalesQuantity(ctx context.Context, id, quantity int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE medicine_sales SET quantity = $2 WHERE id = $1`, id, quantity)
	return err
}

func (t *pgTx) EnsureLookup(ctx context.Context, districtID, medicineID, formulaID int64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO district_medicine_lookup (district_id, medicine_id, formula_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (district_id, medicine_id, formula_id) DO NOTHING`,
		districtID, medicineID, formulaID,
	)
	return err
}
