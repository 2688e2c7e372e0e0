package analysis

import "github.com/YnaPqt/deploiement-getaround/internal/domain"

// Aggregate reduces classified records into the metric for one threshold.
// The returned metric has no Checkin, Delta or PreviousThreshold set.
func Aggregate(records []domain.RentalRecord, threshold float64) domain.ThresholdMetric {
	m := domain.ThresholdMetric{
		Threshold: threshold,
		Total:     len(records),
	}

	for _, r := range records {
		c := Classify(r, threshold)
		if c.Blocked {
			m.Blocked++
		}
		if c.AtRisk {
			m.AtRiskTotal++
		}
		if c.RevenueRisk() {
			m.Solved++
		}
	}

	m.NotBlocked = m.Total - m.Blocked
	m.Unsolved = m.AtRiskTotal - m.Solved
	m.RiskPct = percent(m.Blocked, m.Total)

	return m
}

// percent returns part/total*100, or 0 for an empty total.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
