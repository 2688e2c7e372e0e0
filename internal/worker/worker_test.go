package worker

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/bus"
	"github.com/YnaPqt/deploiement-getaround/internal/cache"
	"github.com/YnaPqt/deploiement-getaround/internal/dataset"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/YnaPqt/deploiement-getaround/internal/rules"
)

const rentalsCSV = `car_id,checkin_type,state,delay_at_checkout_in_minutes,time_delta_with_previous_rental_in_minutes
1,mobile,ended,10,
2,mobile,ended,45,30
3,connect,ended,-5,90
4,connect,ended,120,0
5,mobile,ended,0,150
`

func newAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	raw, err := dataset.ReadCSV(strings.NewReader(rentalsCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	ds, err := dataset.Build(raw, "test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine, err := rules.NewEngine(10)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return analysis.NewAnalyzer(dataset.Static{Dataset: ds}, engine, nil)
}

func TestWorker(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	c := cache.NewLRUCache(100)
	worker := NewWorker(eventBus, c, newAnalyzer(t), nil, time.Minute)

	ctx := context.Background()

	t.Run("StartAndStop", func(t *testing.T) {
		if err := worker.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}
		if stats.Topics[0] != domain.TopicAnalysisRequested {
			t.Errorf("unexpected topic %s", stats.Topics[0])
		}
	})

	t.Run("SubmitCompletes", func(t *testing.T) {
		completed := make(chan *domain.Message, 1)
		_, _ = eventBus.Subscribe(ctx, domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			completed <- msg
			return nil
		})

		job := &domain.AnalysisJob{Checkin: "mobile", Threshold: 60}
		if err := Submit(ctx, eventBus, c, job, time.Minute); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if job.ID == "" {
			t.Fatal("expected Submit to assign an ID")
		}

		select {
		case msg := <-completed:
			var result domain.JobResult
			if err := json.Unmarshal(msg.Payload, &result); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if result.ID != job.ID {
				t.Errorf("expected job %s, got %s", job.ID, result.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for completion")
		}

		result, err := Lookup(ctx, c, job.ID)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if result == nil || result.Status != domain.JobCompleted {
			t.Fatalf("expected completed job, got %+v", result)
		}
		// mobile: 3 records, blocked at 60 only the time delta 30
		if result.Report.Metric.Total != 3 || result.Report.Metric.Blocked != 1 {
			t.Errorf("unexpected metric: %+v", result.Report.Metric)
		}
		if result.Report.Metric.Delta != 0 {
			t.Errorf("expected delta 0 (40 and 60 block the same rentals), got %v", result.Report.Metric.Delta)
		}
	})

	t.Run("Stop", func(t *testing.T) {
		if err := worker.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if worker.GetStats().SubscriptionCount != 0 {
			t.Error("expected no subscriptions after stop")
		}
	})
}

func TestProcessFailure(t *testing.T) {
	eventBus := bus.NewChannelBus(10)
	defer eventBus.Close()

	c := cache.NewLRUCache(10)
	w := NewWorker(eventBus, c, newAnalyzer(t), nil, 0)

	failed := make(chan *domain.Message, 1)
	_, _ = eventBus.Subscribe(context.Background(), domain.TopicAnalysisFailed, func(ctx context.Context, msg *domain.Message) error {
		failed <- msg
		return nil
	})

	tests := []struct {
		name string
		job  domain.AnalysisJob
	}{
		{"BadCheckin", domain.AnalysisJob{ID: "j1", Checkin: "paper", Threshold: 60}},
		{"NegativeThreshold", domain.AnalysisJob{ID: "j2", Checkin: "All", Threshold: -1}},
		{"BadSegment", domain.AnalysisJob{ID: "j3", Checkin: "All", Threshold: 60, Segment: "delay +"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := w.Process(context.Background(), &tt.job)
			if err != nil {
				t.Fatalf("Process returned storage error: %v", err)
			}
			if result.Status != domain.JobFailed || result.Error == "" {
				t.Errorf("expected failed job with error, got %+v", result)
			}

			stored, _ := Lookup(context.Background(), c, tt.job.ID)
			if stored == nil || stored.Status != domain.JobFailed {
				t.Errorf("expected stored failed result, got %+v", stored)
			}

			select {
			case <-failed:
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for failed event")
			}
		})
	}
}

func TestRecordUnencodable(t *testing.T) {
	eventBus := bus.NewChannelBus(10)
	defer eventBus.Close()

	c := cache.NewLRUCache(10)
	w := NewWorker(eventBus, c, newAnalyzer(t), nil, 0)

	published := make(chan *domain.Message, 1)
	_, _ = eventBus.Subscribe(context.Background(), domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
		published <- msg
		return nil
	})

	result := &domain.JobResult{
		ID:     "nan",
		Status: domain.JobCompleted,
		Report: &domain.Report{Thresholds: []float64{math.NaN()}},
	}
	if err := w.record(context.Background(), domain.TopicAnalysisCompleted, result); err == nil {
		t.Fatal("expected an encoding error for a NaN threshold")
	}

	stored, err := Lookup(context.Background(), c, "nan")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if stored != nil {
		t.Errorf("expected nothing stored, got %+v", stored)
	}

	select {
	case msg := <-published:
		t.Fatalf("expected no publish, got %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLookupUnknown(t *testing.T) {
	result, err := Lookup(context.Background(), cache.NewLRUCache(10), "missing")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestParamsFromJob(t *testing.T) {
	p, err := ParamsFromJob(&domain.AnalysisJob{Checkin: "", Threshold: 30, Thresholds: []float64{10, 30}})
	if err != nil {
		t.Fatalf("ParamsFromJob failed: %v", err)
	}
	if p.Checkin != domain.FilterAll {
		t.Errorf("expected empty checkin to mean All, got %s", p.Checkin)
	}

	if _, err := ParamsFromJob(&domain.AnalysisJob{Checkin: "All", Threshold: 10, Thresholds: []float64{10, 10}}); err == nil {
		t.Error("expected duplicate thresholds to be rejected")
	}
}
