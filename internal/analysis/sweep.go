package analysis

import (
	"slices"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// Sweep computes the risk percentage for every threshold, in list order.
// Each point is independent and uses the "blocked" definition of RiskPct.
func Sweep(records []domain.RentalRecord, thresholds []float64) []domain.CurvePoint {
	curve := make([]domain.CurvePoint, len(thresholds))
	for i, t := range thresholds {
		curve[i] = domain.CurvePoint{
			Threshold: t,
			RiskPct:   blockedPct(records, t),
		}
	}
	return curve
}

// Delta returns RiskPct(selected) minus RiskPct of the element right before
// selected in thresholds. The predecessor is positional, not the nearest
// smaller value. ok is false when selected is not in the list; delta is then 0.
// The first element has delta 0 and no predecessor.
func Delta(records []domain.RentalRecord, thresholds []float64, selected float64) (delta float64, previous *float64, ok bool) {
	idx := slices.Index(thresholds, selected)
	if idx < 0 {
		return 0, nil, false
	}
	if idx == 0 {
		return 0, nil, true
	}

	prev := thresholds[idx-1]
	return blockedPct(records, selected) - blockedPct(records, prev), &prev, true
}

// DeltaFromCurve is Delta over an already computed sweep.
func DeltaFromCurve(curve []domain.CurvePoint, selected float64) (delta float64, previous *float64, ok bool) {
	idx := slices.IndexFunc(curve, func(p domain.CurvePoint) bool { return p.Threshold == selected })
	if idx < 0 {
		return 0, nil, false
	}
	if idx == 0 {
		return 0, nil, true
	}

	prev := curve[idx-1].Threshold
	return curve[idx].RiskPct - curve[idx-1].RiskPct, &prev, true
}

func blockedPct(records []domain.RentalRecord, threshold float64) float64 {
	blocked := 0
	for _, r := range records {
		if r.TimeDeltaWithPrevious < threshold {
			blocked++
		}
	}
	return percent(blocked, len(records))
}
