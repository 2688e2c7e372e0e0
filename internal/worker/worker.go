// Package worker runs analysis jobs asynchronously from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/bus"
	"github.com/YnaPqt/deploiement-getaround/internal/cache"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/telemetry"
	"github.com/google/uuid"
)

// DefaultJobTTL is how long job results stay readable.
const DefaultJobTTL = time.Hour

// Worker consumes analysis requests, stores job results in the cache and
// announces them on the completed and failed topics.
type Worker struct {
	bus      domain.EventBus
	cache    domain.Cache
	analyzer *analysis.Analyzer
	metrics  *telemetry.Metrics
	jobTTL   time.Duration

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(eventBus domain.EventBus, c domain.Cache, analyzer *analysis.Analyzer, metrics *telemetry.Metrics, jobTTL time.Duration) *Worker {
	if jobTTL <= 0 {
		jobTTL = DefaultJobTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      eventBus,
		cache:    c,
		analyzer: analyzer,
		metrics:  metrics,
		jobTTL:   jobTTL,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to analysis requests.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicAnalysisRequested, w.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicAnalysisRequested, err)
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicAnalysisRequested)
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var job domain.AnalysisJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		slog.Error("failed to parse analysis job",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if job.TraceID == "" {
		job.TraceID = msg.Metadata[bus.MetadataTraceID]
	}

	_, err := w.Process(ctx, &job)
	return err
}

// Process runs one job and records its result. The returned error is only
// set when the result could not be encoded or stored; analysis failures are recorded as
// failed jobs.
func (w *Worker) Process(ctx context.Context, job *domain.AnalysisJob) (*domain.JobResult, error) {
	start := time.Now()

	slog.Debug("processing analysis job",
		"job_id", job.ID,
		"trace_id", job.TraceID,
	)

	result := &domain.JobResult{ID: job.ID}
	topic := domain.TopicAnalysisCompleted

	params, err := ParamsFromJob(job)
	if err == nil {
		result.Report, err = w.analyzer.Analyze(ctx, params)
	}
	if err != nil {
		result.Status = domain.JobFailed
		result.Error = err.Error()
		topic = domain.TopicAnalysisFailed
		slog.Warn("analysis job failed",
			"job_id", job.ID,
			"trace_id", job.TraceID,
			"error", err,
		)
	} else {
		result.Status = domain.JobCompleted
	}
	w.metrics.JobFinished(result.Status)

	if err := w.record(ctx, topic, result); err != nil {
		return result, err
	}

	slog.Info("analysis job processed",
		"job_id", job.ID,
		"status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// record encodes the result once, stores it for Lookup and announces it on
// topic. Nothing is stored or published when the result cannot be encoded.
func (w *Worker) record(ctx context.Context, topic string, result *domain.JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to encode job result",
			"job_id", result.ID,
			"error", err,
		)
		return err
	}

	if err := w.cache.Set(ctx, JobKey(result.ID), payload, w.jobTTL); err != nil {
		slog.Error("failed to store job result",
			"job_id", result.ID,
			"error", err,
		)
		return err
	}

	if err := w.bus.Publish(ctx, topic, payload); err != nil {
		slog.Error("failed to publish job result",
			"job_id", result.ID,
			"topic", topic,
			"error", err,
		)
	}
	return nil
}

// Stop unsubscribes and cancels in-flight handlers.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}

// JobKey is the cache key holding a job's result.
func JobKey(id string) string {
	return cache.Key("job", id)
}

// ParamsFromJob converts a job payload into validated analysis parameters.
func ParamsFromJob(job *domain.AnalysisJob) (analysis.Params, error) {
	checkin, err := domain.ParseCheckinFilter(job.Checkin)
	if err != nil {
		return analysis.Params{}, err
	}
	p := analysis.Params{
		Checkin:    checkin,
		Threshold:  job.Threshold,
		Thresholds: job.Thresholds,
		Segment:    job.Segment,
	}
	return p, p.Validate()
}

// Submit records a pending job and publishes it for a worker to pick up.
// The job gets a fresh ID when it has none.
func Submit(ctx context.Context, eventBus domain.EventBus, c domain.Cache, job *domain.AnalysisJob, ttl time.Duration) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}

	pending := &domain.JobResult{ID: job.ID, Status: domain.JobPending}
	if err := cache.SetJSON(ctx, c, JobKey(job.ID), pending, ttl); err != nil {
		return fmt.Errorf("store pending job: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := eventBus.Publish(ctx, domain.TopicAnalysisRequested, payload); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Lookup returns the stored result of a job, or nil when it is unknown or expired.
func Lookup(ctx context.Context, c domain.Cache, id string) (*domain.JobResult, error) {
	var result domain.JobResult
	ok, err := cache.GetJSON(ctx, c, JobKey(id), &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}
