package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/medinsights/backend/internal/contracts"
)

// recentWindow is the tail length used for trend detection
const recentWindow = 7

// Trend is a flat extrapolation derived from a daily sales series
type Trend struct {
	AvgDaily    decimal.Decimal
	TrendFactor decimal.Decimal

	// Predicted is floor(AvgDaily * TrendFactor), the quantity
	// forecast for every day of the horizon.
	Predicted int64
}

// ComputeTrend derives a flat daily prediction from an ascending series
// of per-date totals. The average of the whole series anchors the level;
// when at least 7 observations exist, the ratio of the last week's
// average to the overall average scales it up or down.
func ComputeTrend(series []contracts.DatedQuantity) (*Trend, error) {
	if len(series) == 0 {
		return nil, contracts.ErrNoData
	}

	sum := decimal.Zero
	for _, dq := range series {
		sum = sum.Add(decimal.NewFromInt(dq.Quantity))
	}
	avgDaily := sum.Div(decimal.NewFromInt(int64(len(series))))

	trendFactor := decimal.NewFromInt(1)
	if len(series) >= recentWindow && avgDaily.IsPositive() {
		recentSum := decimal.Zero
		for _, dq := range series[len(series)-recentWindow:] {
			recentSum = recentSum.Add(decimal.NewFromInt(dq.Quantity))
		}
		recentAvg := recentSum.Div(decimal.NewFromInt(recentWindow))
		trendFactor = recentAvg.Div(avgDaily)
	}

	return &Trend{
		AvgDaily:    avgDaily,
		TrendFactor: trendFactor,
		Predicted:   avgDaily.Mul(trendFactor).Floor().IntPart(),
	}, nil
}
