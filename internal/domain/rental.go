// Package domain defines the core interfaces and types for the rental delay analysis.
package domain

import (
	"fmt"
	"math"
	"strings"
)

// CheckinType is the check-in method used for a rental.
type CheckinType string

const (
	CheckinMobile  CheckinType = "mobile"
	CheckinConnect CheckinType = "connect"
)

// ParseCheckinType validates a raw check-in method value.
func ParseCheckinType(s string) (CheckinType, error) {
	switch CheckinType(strings.TrimSpace(s)) {
	case CheckinMobile:
		return CheckinMobile, nil
	case CheckinConnect:
		return CheckinConnect, nil
	default:
		return "", fmt.Errorf("%w: unknown checkin_type %q", ErrInvalidRecord, s)
	}
}

// CheckinFilter selects which rentals take part in an analysis.
type CheckinFilter string

const (
	FilterAll     CheckinFilter = "All"
	FilterMobile  CheckinFilter = CheckinFilter(CheckinMobile)
	FilterConnect CheckinFilter = CheckinFilter(CheckinConnect)
)

// CheckinFilters lists the accepted filter values in display order.
var CheckinFilters = []CheckinFilter{FilterAll, FilterMobile, FilterConnect}

// ParseCheckinFilter validates a filter selection. An empty value means All.
func ParseCheckinFilter(s string) (CheckinFilter, error) {
	switch strings.TrimSpace(s) {
	case "", string(FilterAll), "all":
		return FilterAll, nil
	case string(FilterMobile):
		return FilterMobile, nil
	case string(FilterConnect):
		return FilterConnect, nil
	default:
		return "", fmt.Errorf("%w: %q (expected All, mobile or connect)", ErrInvalidCheckin, s)
	}
}

// StateEnded is the only rental state visible to the analysis.
const StateEnded = "ended"

// DelayCategory buckets a checkout delay by severity.
type DelayCategory string

const (
	DelayOnTime         DelayCategory = "on time"
	DelayModeratelyLate DelayCategory = "moderately late"
	DelayVeryLate       DelayCategory = "very late"
	DelayExtremelyLate  DelayCategory = "extremely late"
)

// DelayCategories lists the categories from least to most severe.
var DelayCategories = []DelayCategory{DelayOnTime, DelayModeratelyLate, DelayVeryLate, DelayExtremelyLate}

// RawRental is a rental row as found in the source table, before cleaning.
// Nil pointers are missing values.
type RawRental struct {
	Position              int
	RentalID              string
	CarID                 string
	CheckinType           string
	State                 string
	DelayAtCheckout       *float64
	PreviousEndedRentalID string
	TimeDeltaWithPrevious *float64
}

// RentalRecord is one cleaned, ended rental.
// Records are immutable once the dataset has been derived.
type RentalRecord struct {
	RentalID              string
	CarID                 string
	CheckinType           CheckinType
	State                 string
	DelayAtCheckout       float64 // minutes, missing treated as 0
	PreviousEndedRentalID string
	TimeDeltaWithPrevious float64 // minutes, +Inf when there is no close previous rental

	// Derived once from the full ordered table; never recomputed after filtering.
	PreviousDelay float64
	DelayCategory DelayCategory
}

// HasPreviousRental reports whether a previous rental is close enough to conflict.
func (r RentalRecord) HasPreviousRental() bool {
	return !math.IsInf(r.TimeDeltaWithPrevious, 1)
}
