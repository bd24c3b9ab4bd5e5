package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medinsights/backend/internal/contracts"
)

// Store provides transactional access to the inventory tables
type Store interface {
	// InTx runs fn inside a single transaction. Any error from fn
	// rolls the transaction back with zero partial state.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside an inventory transaction
type Tx interface {
	// MedicineForUpdate loads a medicine and locks its row for the
	// remainder of the transaction.
	MedicineForUpdate(ctx context.Context, id int64) (*contracts.Medicine, error)

	// District loads a district by id
	District(ctx context.Context, id int64) (*contracts.District, error)

	// SalesRecordForKey returns the record for the natural key, or nil
	SalesRecordForKey(ctx context.Context, medicineID, districtID int64, date time.Time) (*contracts.SalesRecord, error)

	// AdjustStock applies a signed delta to stock_level and returns
	// the new level.
	AdjustStock(ctx context.Context, medicineID, delta int64) (int64, error)

	// InsertSalesRecord creates a record and returns its id
	InsertSalesRecord(ctx context.Context, rec *contracts.SalesRecord) (int64, error)

	// UpdateSalesQuantity replaces the quantity of an existing record
	UpdateSalesQuantity(ctx context.Context, id, quantity int64) error

	// EnsureLookup inserts the (district, medicine, formula) triple if absent
	EnsureLookup(ctx context.Context, districtID, medicineID, formulaID int64) error
}

// Sale statuses returned by RecordSale
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
)

// RecordSaleResult reports the outcome of a sales upsert
type RecordSaleResult struct {
	Status   string                `json:"status"`
	Medicine contracts.Medicine    `json:"medicine"`
	Record   contracts.SalesRecord `json:"salesRecord"`
}

// Service upserts sales by natural key, adjusting the stock ledger in
// the same transaction.
type Service struct {
	store  Store
	ledger *Ledger
	log    zerolog.Logger
}

// NewService creates an inventory service
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		ledger: NewLedger(),
		log:    log.With().Str("component", "inventory.service").Logger(),
	}
}

// RecordSale upserts the sales record for (medicineID, districtID, date).
// A resubmission for an existing key is an update: the prior quantity is
// credited back before the new quantity is debited, so only the latest
// submission nets against stock. Fails without any mutation when the
// resulting stock would go negative.
func (s *Service) RecordSale(ctx context.Context, medicineID, districtID int64, date time.Time, quantity int64) (*RecordSaleResult, error) {
	if quantity <= 0 {
		return nil, contracts.NewValidationError("saleQuantity", "must be greater than 0")
	}
	if date.IsZero() {
		return nil, contracts.NewValidationError("date", "is required")
	}
	date = truncateToDay(date)

	var result RecordSaleResult

	err := s.store.InTx(ctx, func(tx Tx) error {
		medicine, err := tx.MedicineForUpdate(ctx, medicineID)
		if err != nil {
			return err
		}

		district, err := tx.District(ctx, districtID)
		if err != nil {
			return err
		}

		existing, err := tx.SalesRecordForKey(ctx, medicineID, districtID, date)
		if err != nil {
			return fmt.Errorf("lookup sales record: %w", err)
		}

		if existing != nil {
			// Only the latest quantity for the key nets against
			// stock: credit the prior quantity back first.
			available := medicine.StockLevel + existing.Quantity
			if available < quantity {
				return &contracts.InsufficientStockError{
					MedicineID: medicine.ID,
					Available:  available,
					Required:   quantity,
				}
			}

			if err := s.ledger.Credit(ctx, tx, medicine, existing.Quantity); err != nil {
				return err
			}
			if err := tx.UpdateSalesQuantity(ctx, existing.ID, quantity); err != nil {
				return fmt.Errorf("update sales record: %w", err)
			}
			if err := s.ledger.Debit(ctx, tx, medicine, quantity); err != nil {
				return err
			}

			existing.Quantity = quantity
			result.Status = StatusUpdated
			result.Record = *existing
		} else {
			if err := s.ledger.Debit(ctx, tx, medicine, quantity); err != nil {
				return err
			}

			rec := &contracts.SalesRecord{
				MedicineID: medicineID,
				DistrictID: districtID,
				Date:       date,
				Quantity:   quantity,
			}
			id, err := tx.InsertSalesRecord(ctx, rec)
			if err != nil {
				return fmt.Errorf("insert sales record: %w", err)
			}
			rec.ID = id

			result.Status = StatusCreated
			result.Record = *rec
		}

		// Mark the medicine as expected in this district
		if err := tx.EnsureLookup(ctx, district.ID, medicine.ID, medicine.FormulaID); err != nil {
			return fmt.Errorf("ensure district lookup: %w", err)
		}

		result.Medicine = *medicine
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("status", result.Status).
		Int64("medicine_id", medicineID).
		Int64("district_id", districtID).
		Str("date", date.Format("2006-01-02")).
		Int64("quantity", quantity).
		Int64("stock_level", result.Medicine.StockLevel).
		Msg("sale recorded")

	return &result, nil
}

// truncateToDay drops the time-of-day component; sales keys are dates
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
