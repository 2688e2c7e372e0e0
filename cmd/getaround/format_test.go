package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

func TestFormatRisk(t *testing.T) {
	tests := []struct {
		name   string
		metric domain.ThresholdMetric
		want   string
	}{
		{"Increase", domain.ThresholdMetric{RiskPct: 12.344, Delta: 1.234}, "12.34% (+1.23%)"},
		{"NoChange", domain.ThresholdMetric{RiskPct: 0}, "0.00% (+0.00%)"},
		{"Decrease", domain.ThresholdMetric{RiskPct: 5, Delta: -2.5}, "5.00% (-2.50%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRisk(tt.metric); got != tt.want {
				t.Errorf("formatRisk() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteReport(t *testing.T) {
	prev := 20.0
	report := &domain.Report{
		Segment: "delay > 0.0",
		Metric: domain.ThresholdMetric{
			Checkin:           domain.FilterMobile,
			Threshold:         40,
			Total:             5,
			Blocked:           2,
			NotBlocked:        3,
			Solved:            1,
			AtRiskTotal:       2,
			Unsolved:          1,
			RiskPct:           40,
			Delta:             20,
			PreviousThreshold: &prev,
		},
		Curve: []domain.CurvePoint{{Threshold: 20, RiskPct: 20}, {Threshold: 40, RiskPct: 40}},
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, report); err != nil {
		t.Fatalf("writeReport failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Revenue Risk (% of Rentals Blocked):",
		"40.00% (+20.00%)",
		"Blocked Rentals:",
		"Solved Cases:",
		"Segment:",
		"40 min",
		"Revenue risk curve (mobile)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteBreakdown(t *testing.T) {
	b := &domain.DelayBreakdown{
		Checkin: domain.FilterAll,
		Total:   2,
		Groups: []domain.BreakdownGroup{
			{CheckinType: domain.CheckinMobile, Category: domain.DelayOnTime, Count: 1, Share: 50},
			{CheckinType: domain.CheckinConnect, Category: domain.DelayVeryLate, Count: 1, Share: 50},
		},
		Stats: []domain.DelayStatistics{
			{CheckinType: domain.CheckinMobile, Count: 1, MeanDelay: -5},
		},
	}

	var buf bytes.Buffer
	if err := writeBreakdown(&buf, b); err != nil {
		t.Fatalf("writeBreakdown failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"on time", "very late", "50.00", "-5.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
