package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/cache"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/predict"
	"github.com/YnaPqt/deploiement-getaround/internal/telemetry"
	"github.com/YnaPqt/deploiement-getaround/internal/worker"
	"github.com/go-chi/chi/v5"
)

// Predictor estimates a rental price for a car.
type Predictor interface {
	Predict(ctx context.Context, features *domain.CarFeatures) (*domain.PricePrediction, error)
}

// Dependencies are the services the handlers read from. Only Analyzer is required.
type Dependencies struct {
	Analyzer   *analysis.Analyzer
	Repository domain.RentalRepository
	Cache      domain.Cache
	Bus        domain.EventBus
	Predictor  Predictor
	Metrics    *telemetry.Metrics

	DefaultThreshold float64
	ReportTTL        time.Duration
	JobTTL           time.Duration
	Version          string
}

// Handler holds dependencies for API handlers.
type Handler struct {
	analyzer         *analysis.Analyzer
	repo             domain.RentalRepository
	cache            domain.Cache
	bus              domain.EventBus
	predictor        Predictor
	metrics          *telemetry.Metrics
	defaultThreshold float64
	reportTTL        time.Duration
	jobTTL           time.Duration
	version          string
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		analyzer:         deps.Analyzer,
		repo:             deps.Repository,
		cache:            deps.Cache,
		bus:              deps.Bus,
		predictor:        deps.Predictor,
		metrics:          deps.Metrics,
		defaultThreshold: deps.DefaultThreshold,
		reportTTL:        deps.ReportTTL,
		jobTTL:           deps.JobTTL,
		version:          deps.Version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := "healthy"
	checks := map[string]string{}

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			slog.Warn("health check failed", "component", name, "error", err)
			checks[name] = "down"
			status = "degraded"
			return
		}
		checks[name] = "up"
	}

	if h.repo != nil {
		check("repository", h.repo.Ping)
	}
	if h.cache != nil {
		check("cache", h.cache.Ping)
	}
	if h.bus != nil {
		check("bus", h.bus.Ping)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}

// Ready reports whether the dataset is loaded and analyses can be served.
// It never triggers a load itself.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.analyzer.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
			"error": "dataset loading",
		})
		return
	}

	version, err := h.analyzer.DatasetVersion(r.Context())
	if err != nil {
		slog.Error("dataset not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
			"error": "dataset not loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"ready":          "true",
		"datasetVersion": version,
	})
}

// Thresholds returns the candidate list offered to callers.
func (h *Handler) Thresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds": h.analyzer.Thresholds(),
		"default":    h.defaultThreshold,
		"checkins":   domain.CheckinFilters,
	})
}

// ============================================================================
// ANALYSIS HANDLERS
// ============================================================================

// Analysis handles GET /analysis. Reports are memoized per dataset version
// and parameters; the X-Cache header tells whether the cache answered.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.paramsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, err)
		return
	}

	version, err := h.analyzer.DatasetVersion(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	key := cache.Key("report", version, p.Key())

	if h.cache != nil {
		var cached domain.Report
		ok, err := cache.GetJSON(ctx, h.cache, key, &cached)
		if err != nil {
			slog.Warn("report cache read failed", "key", key, "error", err)
		}
		if ok {
			h.metrics.CacheHit()
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, cached)
			return
		}
		h.metrics.CacheMiss()
	}

	report, err := h.analyzer.Analyze(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	if report.Metadata.TraceID == "" {
		report.Metadata.TraceID = GetTraceID(ctx)
	}

	if h.cache != nil {
		if err := cache.SetJSON(ctx, h.cache, key, report, h.reportTTL); err != nil {
			slog.Warn("report cache write failed", "key", key, "error", err)
		}
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, report)
}

// Curve handles GET /analysis/curve.
func (h *Handler) Curve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	checkin, err := domain.ParseCheckinFilter(q.Get("checkin"))
	if err != nil {
		writeError(w, err)
		return
	}
	thresholds, err := parseThresholdList(q.Get("thresholds"))
	if err != nil {
		writeError(w, err)
		return
	}

	curve, err := h.analyzer.Curve(r.Context(), checkin, thresholds, q.Get("segment"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkin": checkin,
		"curve":   curve,
	})
}

// Breakdown handles GET /analysis/breakdown.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	checkin, err := domain.ParseCheckinFilter(q.Get("checkin"))
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown, err := h.analyzer.Breakdown(r.Context(), checkin, q.Get("segment"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) paramsFromQuery(r *http.Request) (analysis.Params, error) {
	q := r.URL.Query()

	checkin, err := domain.ParseCheckinFilter(q.Get("checkin"))
	if err != nil {
		return analysis.Params{}, err
	}

	threshold := h.defaultThreshold
	if raw := q.Get("threshold"); raw != "" {
		if threshold, err = parseThreshold(raw); err != nil {
			return analysis.Params{}, err
		}
	}

	thresholds, err := parseThresholdList(q.Get("thresholds"))
	if err != nil {
		return analysis.Params{}, err
	}

	return analysis.Params{
		Checkin:    checkin,
		Threshold:  threshold,
		Thresholds: thresholds,
		Segment:    q.Get("segment"),
	}, nil
}

func parseThreshold(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidThreshold, raw)
	}
	return v, nil
}

// parseThresholdList reads a comma separated list. Empty means the default list.
func parseThresholdList(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := parseThreshold(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ============================================================================
// JOB HANDLERS
// ============================================================================

// SubmitJob handles POST /analysis/jobs. The job runs on a worker; its result
// is polled with GET /analysis/jobs/{id}.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.bus == nil || h.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "async analysis not available",
		})
		return
	}

	var job domain.AnalysisJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if job.Checkin == "" {
		job.Checkin = string(domain.FilterAll)
	}
	if _, err := worker.ParamsFromJob(&job); err != nil {
		writeError(w, err)
		return
	}
	if err := h.analyzer.ValidateSegment(job.Segment); err != nil {
		writeError(w, err)
		return
	}

	job.ID = ""
	job.TraceID = GetTraceID(ctx)
	if err := worker.Submit(ctx, h.bus, h.cache, &job, h.jobTTL); err != nil {
		slog.Error("failed to submit analysis job", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to submit job",
		})
		return
	}

	slog.Info("analysis job submitted", "job_id", job.ID, "checkin", job.Checkin, "threshold", job.Threshold)
	w.Header().Set("Location", "/analysis/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, domain.JobResult{ID: job.ID, Status: domain.JobPending})
}

// GetJob handles GET /analysis/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if h.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "async analysis not available",
		})
		return
	}

	result, err := worker.Lookup(r.Context(), h.cache, jobID)
	if err != nil {
		slog.Error("failed to read job", "job_id", jobID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read job",
		})
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "job not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// PREDICTION HANDLERS
// ============================================================================

// Predict handles POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.predictor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "price prediction not available",
		})
		return
	}

	var features domain.CarFeatures
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), &features)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

// writeError maps an error to its status code. Input contract violations
// are 400, prediction upstream failures 502, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	var upstream *predict.Error
	switch {
	case errors.Is(err, domain.ErrInvalidCheckin),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrInvalidSegment),
		errors.Is(err, domain.ErrInvalidFeatures):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": upstream.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
