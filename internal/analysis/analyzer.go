package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/rules"
	"github.com/YnaPqt/deploiement-getaround/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EngineVersion is stamped on every report.
const EngineVersion = "getaround-analysis-1.0"

var tracer = otel.Tracer("getaround-analysis")

// Analyzer runs the filter, classify, aggregate and sweep stages over the dataset.
// It is the single entry point shared by the API, the CLI and the worker.
type Analyzer struct {
	source     domain.DatasetSource
	segments   *rules.Engine
	thresholds []float64
	metrics    *telemetry.Metrics
}

// NewAnalyzer creates an analyzer. segments may be nil, in which case segment
// expressions are rejected. thresholds is the default candidate list.
func NewAnalyzer(source domain.DatasetSource, segments *rules.Engine, thresholds []float64) *Analyzer {
	if len(thresholds) == 0 {
		thresholds = domain.DefaultThresholds
	}
	return &Analyzer{
		source:     source,
		segments:   segments,
		thresholds: append([]float64(nil), thresholds...),
	}
}

// WithMetrics records computation counts and durations into m.
func (a *Analyzer) WithMetrics(m *telemetry.Metrics) *Analyzer {
	a.metrics = m
	return a
}

// DatasetVersion loads the dataset if needed and returns its fingerprint.
func (a *Analyzer) DatasetVersion(ctx context.Context) (string, error) {
	ds, err := a.source.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load dataset: %w", err)
	}
	a.metrics.SetDatasetRecords(len(ds.Records))
	return ds.Version, nil
}

// Thresholds returns a copy of the default candidate list.
func (a *Analyzer) Thresholds() []float64 {
	return append([]float64(nil), a.thresholds...)
}

// ValidateSegment checks a segment expression without running it.
func (a *Analyzer) ValidateSegment(expr string) error {
	if expr == "" {
		return nil
	}
	if a.segments == nil {
		return fmt.Errorf("%w: segments are not enabled", domain.ErrInvalidSegment)
	}
	return a.segments.Validate(expr)
}

// Loaded reports whether the dataset is in memory. Sources that cannot tell
// are treated as loaded.
func (a *Analyzer) Loaded() bool {
	if l, ok := a.source.(interface{ Loaded() bool }); ok {
		return l.Loaded()
	}
	return true
}

// View loads the dataset and applies the check-in filter and segment.
// The filter is normalized first, so "" and "all" select every rental.
func (a *Analyzer) View(ctx context.Context, checkin domain.CheckinFilter, segment string) (*domain.Dataset, []domain.RentalRecord, error) {
	checkin, err := domain.ParseCheckinFilter(string(checkin))
	if err != nil {
		return nil, nil, err
	}

	ds, err := a.source.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	view := FilterByCheckin(ds.Records, checkin)

	if segment != "" {
		if a.segments == nil {
			return nil, nil, fmt.Errorf("%w: segments are not enabled", domain.ErrInvalidSegment)
		}
		seg, err := a.segments.Compile(segment)
		if err != nil {
			return nil, nil, err
		}
		a.metrics.SetCachedSegments(a.segments.SegmentsCount())
		if view, err = seg.Filter(view); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidSegment, err)
		}
	}

	return ds, view, nil
}

// Analyze computes the single-threshold metric, its delta and the sweep curve.
func (a *Analyzer) Analyze(ctx context.Context, p Params) (report *domain.Report, err error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAnalysis("analyze", err, time.Since(start)) }()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	thresholds := p.Thresholds
	if len(thresholds) == 0 {
		thresholds = a.thresholds
	}

	ctx, span := tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(
			attribute.String("checkin", string(p.Checkin)),
			attribute.Float64("threshold", p.Threshold),
			attribute.Bool("segmented", p.Segment != ""),
		),
	)
	defer span.End()

	ds, view, err := a.View(ctx, p.Checkin, p.Segment)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 1. Single threshold metric
	metric := Aggregate(view, p.Threshold)
	metric.Checkin = p.Checkin

	// 2. Curve over the candidate list
	curve := Sweep(view, thresholds)

	// 3. Delta against the list predecessor
	metric.Delta, metric.PreviousThreshold, _ = DeltaFromCurve(curve, p.Threshold)

	span.SetAttributes(
		attribute.Int("records", len(view)),
		attribute.Int("blocked", metric.Blocked),
	)

	var traceID string
	if sc := span.SpanContext(); sc.TraceID().IsValid() {
		traceID = sc.TraceID().String()
	}

	return &domain.Report{
		ID:             uuid.New().String(),
		DatasetVersion: ds.Version,
		Segment:        p.Segment,
		Metric:         metric,
		Curve:          curve,
		Thresholds:     append([]float64(nil), thresholds...),
		GeneratedAt:    time.Now().UTC(),
		Metadata: domain.ReportMetadata{
			TraceID:        traceID,
			RecordsScanned: len(view),
			ComputeMs:      time.Since(start).Milliseconds(),
			EngineVersion:  EngineVersion,
		},
	}, nil
}

// Curve computes only the sweep for a filter.
func (a *Analyzer) Curve(ctx context.Context, checkin domain.CheckinFilter, thresholds []float64, segment string) (curve []domain.CurvePoint, err error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAnalysis("curve", err, time.Since(start)) }()

	if err := ValidateThresholds(thresholds); err != nil {
		return nil, err
	}
	if len(thresholds) == 0 {
		thresholds = a.thresholds
	}

	_, view, err := a.View(ctx, checkin, segment)
	if err != nil {
		return nil, err
	}
	return Sweep(view, thresholds), nil
}

// Breakdown describes checkout delays for a filter.
func (a *Analyzer) Breakdown(ctx context.Context, checkin domain.CheckinFilter, segment string) (breakdown *domain.DelayBreakdown, err error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAnalysis("breakdown", err, time.Since(start)) }()

	if checkin, err = domain.ParseCheckinFilter(string(checkin)); err != nil {
		return nil, err
	}
	_, view, err := a.View(ctx, checkin, segment)
	if err != nil {
		return nil, err
	}
	b := Breakdown(view, checkin)
	return &b, nil
}
