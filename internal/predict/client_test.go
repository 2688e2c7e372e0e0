package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

func validFeatures() *domain.CarFeatures {
	return &domain.CarFeatures{
		ModelKey:            "Citroën",
		Mileage:             150000,
		EnginePower:         120,
		Fuel:                "diesel",
		AutomaticCar:        true,
		HasGPS:              true,
		HasGetaroundConnect: true,
		CarType:             "estate",
		PaintColor:          "black",
	}
}

func newTestClient(url string) *Client {
	return NewClient(domain.PredictorConfig{URL: url, Timeout: 2}, nil)
}

func TestPredict(t *testing.T) {
	var got domain.PredictionPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prediction": 118.42}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Predict(context.Background(), validFeatures())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if result.PricePerDay != 118.42 {
		t.Errorf("expected 118.42, got %v", result.PricePerDay)
	}
	if result.Currency != "EUR" {
		t.Errorf("expected default currency EUR, got %s", result.Currency)
	}

	t.Run("PayloadEncoding", func(t *testing.T) {
		if got.AutomaticCar != 1 || got.HasGPS != 1 || got.WinterTires != 0 {
			t.Errorf("expected 0/1 flags, got %+v", got)
		}
		if got.ModelKey != "Citroën" || got.EnginePower != 120 {
			t.Errorf("unexpected payload %+v", got)
		}
	})
}

func TestPredictListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction": [99.5]}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Predict(context.Background(), validFeatures())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.PricePerDay != 99.5 {
		t.Errorf("expected 99.5, got %v", result.PricePerDay)
	}
}

func TestPredictFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   int
	}{
		{"ServerError", http.StatusInternalServerError, `{"detail":"model not loaded"}`, 500},
		{"Unprocessable", http.StatusUnprocessableEntity, `{"detail":"bad input"}`, 422},
		{"MissingField", http.StatusOK, `{"price": 10}`, 200},
		{"NotNumber", http.StatusOK, `{"prediction": "cheap"}`, 200},
		{"NotJSON", http.StatusOK, `<html>`, 200},
		{"Null", http.StatusOK, `{"prediction": null}`, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Predict(context.Background(), validFeatures())

			var predErr *Error
			if !errors.As(err, &predErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if predErr.StatusCode != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, predErr.StatusCode)
			}
			if calls.Load() != 1 {
				t.Errorf("expected exactly one call (no retry), got %d", calls.Load())
			}
		})
	}
}

func TestPredictTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Predict(context.Background(), validFeatures())

	var predErr *Error
	if !errors.As(err, &predErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if predErr.StatusCode != 0 {
		t.Errorf("expected no status for transport error, got %d", predErr.StatusCode)
	}
}

func TestPredictValidation(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	tests := []struct {
		name   string
		mutate func(f *domain.CarFeatures)
	}{
		{"UnknownModel", func(f *domain.CarFeatures) { f.ModelKey = "Lada" }},
		{"UnknownFuel", func(f *domain.CarFeatures) { f.Fuel = "hydrogen" }},
		{"UnknownType", func(f *domain.CarFeatures) { f.CarType = "truck" }},
		{"UnknownColor", func(f *domain.CarFeatures) { f.PaintColor = "pink" }},
		{"NegativeMileage", func(f *domain.CarFeatures) { f.Mileage = -1 }},
		{"WeakEngine", func(f *domain.CarFeatures) { f.EnginePower = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeatures()
			tt.mutate(f)

			_, err := client.Predict(context.Background(), f)
			if !errors.Is(err, domain.ErrInvalidFeatures) {
				t.Errorf("expected ErrInvalidFeatures, got %v", err)
			}
		})
	}

	if calls.Load() != 0 {
		t.Errorf("invalid features must not reach the model, got %d calls", calls.Load())
	}
}
