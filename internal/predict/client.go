// Package predict calls the external rental price model.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultTimeout bounds a single prediction call.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Error is a failed prediction call. The call is never retried.
type Error struct {
	// StatusCode is the upstream HTTP status, or 0 when no response arrived.
	StatusCode int
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	msg := "price prediction failed: " + e.Reason
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client posts car features to the price model and reads back the estimate.
type Client struct {
	url      string
	currency string
	http     *http.Client
	metrics  *telemetry.Metrics
}

// NewClient creates a client for the model at url.
func NewClient(cfg domain.PredictorConfig, metrics *telemetry.Metrics) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &Client{
		url:      cfg.URL,
		currency: currency,
		http:     &http.Client{Timeout: timeout},
		metrics:  metrics,
	}
}

type response struct {
	Prediction json.RawMessage `json:"prediction"`
}

// Predict validates features and asks the model for a daily price.
// Validation failures wrap domain.ErrInvalidFeatures; upstream failures are *Error.
func (c *Client) Predict(ctx context.Context, features *domain.CarFeatures) (result *domain.PricePrediction, err error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		c.metrics.ObservePrediction(err)
		if err != nil {
			slog.Warn("price prediction failed",
				"url", c.url,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
	}()

	body, err := json.Marshal(features.ToPayload())
	if err != nil {
		return nil, &Error{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Reason: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Reason: "upstream rejected request", Err: upstreamDetail(data)}
	}

	price, err := parsePrediction(data)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Reason: "malformed response", Err: err}
	}

	return &domain.PricePrediction{
		PricePerDay: price,
		Currency:    c.currency,
		Features:    features,
	}, nil
}

// parsePrediction reads {"prediction": 123.4}; a one-element list is accepted too.
func parsePrediction(data []byte) (float64, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, err
	}
	if len(r.Prediction) == 0 || string(r.Prediction) == "null" {
		return 0, errors.New("missing prediction field")
	}

	var price float64
	if err := json.Unmarshal(r.Prediction, &price); err != nil {
		var list []float64
		if json.Unmarshal(r.Prediction, &list) != nil || len(list) != 1 {
			return 0, fmt.Errorf("prediction is not a number: %s", r.Prediction)
		}
		price = list[0]
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.New("prediction is not finite")
	}
	return price, nil
}

func upstreamDetail(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if len(data) > 200 {
		data = data[:200]
	}
	return errors.New(string(bytes.TrimSpace(data)))
}
