package inventory

import (
	"context"
	"fmt"

	"github.com/medinsights/backend/internal/contracts"
)

// Ledger owns every mutation of Medicine.StockLevel. Debits and credits
// run inside the transaction of the sales write they accompany, against
// a row the transaction has already locked.
type Ledger struct{}

// NewLedger creates a stock ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Debit decrements stock, failing with InsufficientStockError when the
// medicine does not hold qty units. The medicine's in-memory state is
// kept in sync with the row so later steps in the same transaction see
// the adjusted level.
func (l *Ledger) Debit(ctx context.Context, tx Tx, medicine *contracts.Medicine, qty int64) error {
	if qty <= 0 {
		return contracts.NewValidationError("quantity", "debit quantity must be greater than 0")
	}

	if medicine.StockLevel < qty {
		return &contracts.InsufficientStockError{
			MedicineID: medicine.ID,
			Available:  medicine.StockLevel,
			Required:   qty,
		}
	}

	level, err := tx.AdjustStock(ctx, medicine.ID, -qty)
	if err != nil {
		return fmt.Errorf("debit stock: %w", err)
	}

	medicine.StockLevel = level
	return nil
}

// Credit increments stock
func (l *Ledger) Credit(ctx context.Context, tx Tx, medicine *contracts.Medicine, qty int64) error {
	if qty <= 0 {
		return contracts.NewValidationError("quantity", "credit quantity must be greater than 0")
	}

	level, err := tx.AdjustStock(ctx, medicine.ID, qty)
	if err != nil {
		return fmt.Errorf("credit stock: %w", err)
	}

	medicine.StockLevel = level
	return nil
}
