package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/internal/inventory"
)

type fakeSales struct {
	result  *inventory.RecordSaleResult
	err     error
	records []contracts.SalesRecord

	gotDate     time.Time
	gotQuantity int64
}

func (f *fakeSales) RecordSale(ctx context.Context, medicineID, districtID int64, date time.Time, quantity int64) (*inventory.RecordSaleResult, error) {
	f.gotDate = date
	f.gotQuantity = quantity
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSales) ListSales(ctx context.Context, medicineID, districtID int64, from, to time.Time) ([]contracts.SalesRecord, error) {
	return f.records, nil
}

func postSale(handler *SalesHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/medicines/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.RecordSale(rec, req)
	return rec
}

func TestRecordSale_Created(t *testing.T) {
	fake := &fakeSales{result: &inventory.RecordSaleResult{
		Status:   inventory.StatusCreated,
		Medicine: contracts.Medicine{ID: 1, BrandName: "Napa", StockLevel: 70},
		Record: contracts.SalesRecord{
			ID: 5, MedicineID: 1, DistrictID: 3,
			Date:     time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			Quantity: 30,
		},
	}}
	handler := NewSalesHandler(fake, fake, testLogger())

	rec := postSale(handler, `{"medicineId":1,"districtId":3,"date":"2026-08-20","saleQuantity":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Sales record created successfully", body["message"])

	sale := body["salesRecord"].(map[string]interface{})
	assert.Equal(t, "2026-08-20", sale["date"])
	assert.Equal(t, float64(30), sale["quantity"])

	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), fake.gotDate)
	assert.Equal(t, int64(30), fake.gotQuantity)
}

func TestRecordSale_UpdatedMessage(t *testing.T) {
	fake := &fakeSales{result: &inventory.RecordSaleResult{Status: inventory.StatusUpdated}}
	handler := NewSalesHandler(fake, fake, testLogger())

	rec := postSale(handler, `{"medicineId":1,"districtId":3,"date":"2026-08-20","saleQuantity":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Sales record updated successfully", body["message"])
}

func TestRecordSale_BadRequests(t *testing.T) {
	handler := NewSalesHandler(&fakeSales{}, &fakeSales{}, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing medicine", body: `{"districtId":3,"date":"2026-08-20","saleQuantity":10}`},
		{name: "missing district", body: `{"medicineId":1,"date":"2026-08-20","saleQuantity":10}`},
		{name: "missing date", body: `{"medicineId":1,"districtId":3,"saleQuantity":10}`},
		{name: "bad date format", body: `{"medicineId":1,"districtId":3,"date":"20-08-2026","saleQuantity":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSale(handler, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	fake := &fakeSales{err: &contracts.InsufficientStockError{MedicineID: 1, Available: 20, Required: 50}}
	handler := NewSalesHandler(fake, fake, testLogger())

	rec := postSale(handler, `{"medicineId":1,"districtId":3,"date":"2026-08-20","saleQuantity":50}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "available 20, required 50")
}

func TestRecordSale_UnknownMedicine(t *testing.T) {
	fake := &fakeSales{err: contracts.NewNotFoundError("medicine", "99", "")}
	handler := NewSalesHandler(fake, fake, testLogger())

	rec := postSale(handler, `{"medicineId":99,"districtId":3,"date":"2026-08-20","saleQuantity":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSales(t *testing.T) {
	fake := &fakeSales{records: []contracts.SalesRecord{
		{ID: 2, MedicineID: 1, DistrictID: 3, Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), Quantity: 12},
		{ID: 1, MedicineID: 1, DistrictID: 3, Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Quantity: 30},
	}}
	handler := NewSalesHandler(fake, fake, testLogger())

	req := httptest.NewRequest("GET", "/api/medicines/sales?medicineId=1", nil)
	rec := httptest.NewRecorder()
	handler.ListSales(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "2026-08-21", body[0]["date"])
}

func TestListSales_BadFilters(t *testing.T) {
	handler := NewSalesHandler(&fakeSales{}, &fakeSales{}, testLogger())

	for _, query := range []string{"medicineId=x", "districtId=x", "from=yesterday", "to=tomorrow"} {
		req := httptest.NewRequest("GET", "/api/medicines/sales?"+query, nil)
		rec := httptest.NewRecorder()
		handler.ListSales(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}
