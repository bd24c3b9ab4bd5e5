// Package prophet talks to the external Prophet prediction service.
package prophet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medinsights/backend/internal/contracts"
	"github.com/medinsights/backend/pkg/httputil"
	"github.com/medinsights/backend/pkg/logger"
)

// Prediction is a cleaned forecast from the external service. Values are
// clamped to non-negative integers; positions with no usable value are
// dropped, so Dates and Values stay aligned.
type Prediction struct {
	Dates  []string
	Values []int64
}

// Client is the gateway to the external predictor
type Client struct {
	http    *httputil.Client
	baseURL string
	log     *logger.Logger
}

// New creates a predictor gateway
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		http:    httputil.NewWithTimeout(log, timeout).DisableRetry(),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.WithField("component", "prophet.client"),
	}
}

// forecastResponse mirrors the external payload after NaN cleanup.
// Values are pointers so positions the service could not predict
// (NaN, sent as null after cleanup) decode as nil.
type forecastResponse struct {
	Forecast struct {
		Dates  []string   `json:"dates"`
		Values []*float64 `json:"values"`
	} `json:"forecast"`
}

// Forecast requests days of predictions for a medicine in an area. Any
// failure, transport, status, payload shape or an all-null value list,
// surfaces as ErrUpstreamUnavailable so callers fall through to the
// next forecast tier.
func (c *Client) Forecast(ctx context.Context, area, medicine string, days int) (*Prediction, error) {
	endpoint := fmt.Sprintf("%s/forecast?%s", c.baseURL, url.Values{
		"area":     {area},
		"medicine": {medicine},
		"days":     {strconv.Itoa(days)},
	}.Encode())

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: predictor returned status %d", contracts.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", contracts.ErrUpstreamUnavailable, err)
	}

	// The service emits bare NaN literals, which are not valid JSON
	cleaned := strings.ReplaceAll(string(body), "NaN", "null")

	var payload forecastResponse
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", contracts.ErrUpstreamUnavailable, err)
	}

	if len(payload.Forecast.Dates) == 0 || len(payload.Forecast.Dates) != len(payload.Forecast.Values) {
		return nil, fmt.Errorf("%w: malformed forecast payload", contracts.ErrUpstreamUnavailable)
	}

	pred := &Prediction{}
	for i, v := range payload.Forecast.Values {
		if v == nil {
			continue
		}
		quantity := int64(math.Round(*v))
		if quantity < 0 {
			quantity = 0
		}
		pred.Dates = append(pred.Dates, payload.Forecast.Dates[i])
		pred.Values = append(pred.Values, quantity)
	}

	if len(pred.Values) == 0 {
		return nil, fmt.Errorf("%w: all forecast values missing", contracts.ErrUpstreamUnavailable)
	}

	c.log.WithFields(map[string]interface{}{
		"area":     area,
		"medicine": medicine,
		"days":     days,
		"received": len(pred.Values),
	}).Debug("external forecast fetched")

	return pred, nil
}
