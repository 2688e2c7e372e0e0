package analysis

import "github.com/YnaPqt/deploiement-getaround/internal/domain"

// Classification is the outcome of applying a threshold to one rental.
type Classification struct {
	// AtRisk: the previous checkout ran later than the gap before this rental.
	AtRisk bool

	// Blocked: the gap is narrower than the threshold, so the car would be hidden.
	Blocked bool
}

// RevenueRisk reports whether the policy would have prevented a real conflict.
func (c Classification) RevenueRisk() bool {
	return c.AtRisk && c.Blocked
}

// Classify applies a minimum-delay threshold to a rental.
// Both comparisons are strict. A +Inf gap is never blocked and never at risk.
func Classify(r domain.RentalRecord, threshold float64) Classification {
	return Classification{
		AtRisk:  r.PreviousDelay > r.TimeDeltaWithPrevious,
		Blocked: r.TimeDeltaWithPrevious < threshold,
	}
}
