package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// Params selects what to analyze. Zero Thresholds means the configured list.
type Params struct {
	Checkin    domain.CheckinFilter
	Threshold  float64
	Thresholds []float64
	Segment    string
}

// Validate rejects parameters that break the input contract.
func (p Params) Validate() error {
	switch p.Checkin {
	case domain.FilterAll, domain.FilterMobile, domain.FilterConnect:
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidCheckin, p.Checkin)
	}
	if err := ValidateThreshold(p.Threshold); err != nil {
		return err
	}
	return ValidateThresholds(p.Thresholds)
}

// ValidateThreshold accepts any finite, non-negative number of minutes.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: %v is not a finite number", domain.ErrInvalidThreshold, t)
	}
	if t < 0 {
		return fmt.Errorf("%w: %v is negative", domain.ErrInvalidThreshold, t)
	}
	return nil
}

// ValidateThresholds checks a candidate list. Order is kept as given, but
// duplicates are rejected since deltas are taken by list position.
func ValidateThresholds(ts []float64) error {
	seen := make(map[float64]struct{}, len(ts))
	for _, t := range ts {
		if err := ValidateThreshold(t); err != nil {
			return err
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: %v appears twice in the candidate list", domain.ErrInvalidThreshold, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// Key renders the parameters as a stable string for cache keys.
func (p Params) Key() string {
	var b strings.Builder
	b.WriteString(string(p.Checkin))
	b.WriteByte('|')
	b.WriteString(formatMinutes(p.Threshold))
	b.WriteByte('|')
	for i, t := range p.Thresholds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatMinutes(t))
	}
	b.WriteByte('|')
	b.WriteString(p.Segment)
	return b.String()
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
