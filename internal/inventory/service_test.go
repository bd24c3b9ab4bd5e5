package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/internal/contracts"
)

// fakeStore is an in-memory Store with transactional semantics: fn runs
// against a staged copy that is only published when fn returns nil.
type fakeStore struct {
	medicines map[int64]contracts.Medicine
	districts map[int64]contracts.District
	sales     map[int64]contracts.SalesRecord
	lookups   map[[3]int64]bool
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		medicines: make(map[int64]contracts.Medicine),
		districts: make(map[int64]contracts.District),
		sales:     make(map[int64]contracts.SalesRecord),
		lookups:   make(map[[3]int64]bool),
		nextID:    1,
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	for k, v := range s.medicines {
		c.medicines[k] = v
	}
	for k, v := range s.districts {
		c.districts[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.lookups {
		c.lookups[k] = v
	}
	return c
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	staged := s.clone()
	if err := fn(&fakeTx{store: staged}); err != nil {
		return err
	}
	*s = *staged
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) MedicineForUpdate(ctx context.Context, id int64) (*contracts.Medicine, error) {
	m, ok := t.store.medicines[id]
	if !ok {
		return nil, contracts.NewNotFoundError("medicine", "?", "")
	}
	return &m, nil
}

func (t *fakeTx) District(ctx context.Context, id int64) (*contracts.District, error) {
	d, ok := t.store.districts[id]
	if !ok {
		return nil, contracts.NewNotFoundError("district", "?", "")
	}
	return &d, nil
}

func (t *fakeTx) SalesRecordForKey(ctx context.Context, medicineID, districtID int64, date time.Time) (*contracts.SalesRecord, error) {
	for _, r := range t.store.sales {
		if r.MedicineID == medicineID && r.DistrictID == districtID && r.Date.Equal(date) {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) AdjustStock(ctx context.Context, medicineID, delta int64) (int64, error) {
	m := t.store.medicines[medicineID]
	m.StockLevel += delta
	t.store.medicines[medicineID] = m
	return m.StockLevel, nil
}

func (t *fakeTx) InsertSalesRecord(ctx context.Context, rec *contracts.SalesRecord) (int64, error) {
	id := t.store.nextID
	t.store.nextID++
	saved := *rec
	saved.ID = id
	t.store.sales[id] = saved
	return id, nil
}

func (t *fakeTx) UpdateSalesQuantity(ctx context.Context, id, quantity int64) error {
	r := t.store.sales[id]
	r.Quantity = quantity
	t.store.sales[id] = r
	return nil
}

func (t *fakeTx) EnsureLookup(ctx context.Context, districtID, medicineID, formulaID int64) error {
	t.store.lookups[[3]int64{districtID, medicineID, formulaID}] = true
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, zerolog.Nop())
}

func seedStore() *fakeStore {
	store := newFakeStore()
	store.medicines[1] = contracts.Medicine{
		ID:         1,
		FormulaID:  7,
		BrandName:  "Napa",
		Dosage:     "500mg",
		StockLevel: 100,
	}
	store.districts[3] = contracts.District{ID: 3, Name: "Dhaka"}
	return store
}

func saleDate() time.Time {
	return time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
}

func TestRecordSale_Create(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)

	result, err := svc.RecordSale(context.Background(), 1, 3, saleDate(), 30)
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, result.Status)
	assert.Equal(t, int64(30), result.Record.Quantity)
	assert.Equal(t, int64(70), result.Medicine.StockLevel)
	assert.Equal(t, int64(70), store.medicines[1].StockLevel)
	assert.True(t, store.lookups[[3]int64{3, 1, 7}])
}

func TestRecordSale_UpdateNetsLatestQuantity(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, 1, 3, saleDate(), 30)
	require.NoError(t, err)

	// Resubmitting the same key replaces, it never accumulates
	result, err := svc.RecordSale(ctx, 1, 3, saleDate(), 10)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, result.Status)
	assert.Equal(t, int64(10), result.Record.Quantity)
	// 100 initial minus the latest quantity only
	assert.Equal(t, int64(90), store.medicines[1].StockLevel)
	assert.Len(t, store.sales, 1)
}

func TestRecordSale_RepeatIdenticalIsIdempotent(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, 1, 3, saleDate(), 25)
	require.NoError(t, err)

	result, err := svc.RecordSale(ctx, 1, 3, saleDate(), 25)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, result.Status)
	assert.Equal(t, int64(75), store.medicines[1].StockLevel)
	assert.Len(t, store.sales, 1)
}

func TestRecordSale_UpdateUsesCreditedAvailability(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, 1, 3, saleDate(), 80)
	require.NoError(t, err)
	require.Equal(t, int64(20), store.medicines[1].StockLevel)

	// 20 on hand plus the 80 credited back covers 95
	result, err := svc.RecordSale(ctx, 1, 3, saleDate(), 95)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, result.Status)
	assert.Equal(t, int64(5), store.medicines[1].StockLevel)
}

func TestRecordSale_InsufficientStockLeavesNoPartialState(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)

	_, err := svc.RecordSale(context.Background(), 1, 3, saleDate(), 150)
	require.Error(t, err)
	assert.True(t, contracts.IsInsufficientStock(err))

	assert.Equal(t, int64(100), store.medicines[1].StockLevel)
	assert.Empty(t, store.sales)
	assert.Empty(t, store.lookups)
}

func TestRecordSale_InsufficientUpdateLeavesPriorRecord(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, 1, 3, saleDate(), 40)
	require.NoError(t, err)

	// available = 60 + 40 credited back = 100 < 120
	_, err = svc.RecordSale(ctx, 1, 3, saleDate(), 120)
	require.Error(t, err)
	assert.True(t, contracts.IsInsufficientStock(err))

	assert.Equal(t, int64(60), store.medicines[1].StockLevel)
	require.Len(t, store.sales, 1)
	for _, r := range store.sales {
		assert.Equal(t, int64(40), r.Quantity)
	}
}

func TestRecordSale_Validation(t *testing.T) {
	svc := newTestService(seedStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		quantity int64
		date     time.Time
	}{
		{name: "zero quantity", quantity: 0, date: saleDate()},
		{name: "negative quantity", quantity: -5, date: saleDate()},
		{name: "zero date", quantity: 10, date: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordSale(ctx, 1, 3, tt.date, tt.quantity)
			require.Error(t, err)
			assert.True(t, contracts.IsValidation(err))
		})
	}
}

func TestRecordSale_UnknownMedicine(t *testing.T) {
	svc := newTestService(seedStore())

	_, err := svc.RecordSale(context.Background(), 99, 3, saleDate(), 10)
	require.Error(t, err)
	assert.True(t, contracts.IsNotFound(err))
}

func TestRecordSale_TruncatesDateToDay(t *testing.T) {
	store := seedStore()
	svc := newTestService(store)
	ctx := context.Background()

	morning := time.Date(2026, 8, 20, 9, 15, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 20, 22, 45, 0, 0, time.UTC)

	_, err := svc.RecordSale(ctx, 1, 3, morning, 30)
	require.NoError(t, err)

	result, err := svc.RecordSale(ctx, 1, 3, evening, 20)
	require.NoError(t, err)

	assert.Equal(t, StatusUpdated, result.Status)
	assert.Equal(t, int64(80), store.medicines[1].StockLevel)
	assert.Len(t, store.sales, 1)
}
