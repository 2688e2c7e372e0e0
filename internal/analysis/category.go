package analysis

import "github.com/YnaPqt/deploiement-getaround/internal/domain"

// Category upper bounds, in minutes. Each bound is inclusive.
const (
	onTimeMax         = 0
	moderatelyLateMax = 30
	veryLateMax       = 60
)

// Categorize buckets a checkout delay by severity.
func Categorize(delay float64) domain.DelayCategory {
	switch {
	case delay <= onTimeMax:
		return domain.DelayOnTime
	case delay <= moderatelyLateMax:
		return domain.DelayModeratelyLate
	case delay <= veryLateMax:
		return domain.DelayVeryLate
	default:
		return domain.DelayExtremelyLate
	}
}
