package contracts

import "time"

// Model version tags recorded on persisted forecast entries, and the
// source labels reported on resolved forecasts.
const (
	SourceStored  = "database"
	SourceProphet = "prophet_external_v1"
	SourceTrend   = "calculated_historical_avg"
)

// District is a geographic sales/demand partition
type District struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Formula is a therapeutic compound grouping one or more branded medicines
type Formula struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	TherapeuticClass string `json:"therapeuticClass,omitempty"`
}

// Medicine is a branded product of a formula. StockLevel is mutated only
// through the inventory ledger.
type Medicine struct {
	ID         int64  `json:"id"`
	FormulaID  int64  `json:"formulaId"`
	BrandName  string `json:"brandName"`
	Dosage     string `json:"dosage,omitempty"`
	StockLevel int64  `json:"stockLevel"`
}

// SalesRecord is one day's sales of a medicine in a district.
// (MedicineID, DistrictID, Date) is the natural key.
type SalesRecord struct {
	ID         int64     `json:"id"`
	MedicineID int64     `json:"medicineId"`
	DistrictID int64     `json:"districtId"`
	Date       time.Time `json:"date"`
	Quantity   int64     `json:"quantity"`
}

// ForecastEntry is a persisted per-medicine per-day forecast.
// (MedicineID, DistrictID, ForecastDate) is the natural key; entries
// are overwritten, never duplicated.
type ForecastEntry struct {
	ID                 int64     `json:"id"`
	MedicineID         int64     `json:"medicineId"`
	DistrictID         int64     `json:"districtId"`
	ForecastDate       time.Time `json:"forecastDate"`
	ForecastedQuantity int64     `json:"forecastedQuantity"`
	ModelVersion       string    `json:"modelVersion"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
}

// DistrictMedicineLookup records that a medicine has been observed
// selling in a district, scoping apportionment.
type DistrictMedicineLookup struct {
	ID         int64 `json:"id"`
	DistrictID int64 `json:"districtId"`
	MedicineID int64 `json:"medicineId"`
	FormulaID  int64 `json:"formulaId"`
}

// DatedQuantity is one point of a daily series, ascending by date
type DatedQuantity struct {
	Date     time.Time `json:"date"`
	Quantity int64     `json:"quantity"`
}

// ForecastPoint is one resolved forecast day with its provenance
type ForecastPoint struct {
	Date              time.Time `json:"date"`
	PredictedQuantity int64     `json:"predicted_quantity"`
	Source            string    `json:"source"`
}

// ForecastResult is the output of the resolution cascade for one
// (district, formula, horizon) request.
type ForecastResult struct {
	District      District
	Formula       Formula
	Days          int
	MedicineIDs   []int64
	Points        []ForecastPoint
	Source        string
	TotalForecast int64
	AvgDaily      float64
	ForecastStart time.Time
	ForecastEnd   time.Time
}
