// Package analysis implements the minimum-delay what-if computation:
// check-in filtering, per-rental risk classification, metric aggregation
// and threshold sweeps. Everything here is pure and safe for concurrent use
// over a shared read-only dataset.
package analysis

import "github.com/YnaPqt/deploiement-getaround/internal/domain"

// FilterByCheckin restricts records to one check-in method.
// FilterAll returns the input slice itself. Other filters return a new slice in
// the same order; derived fields are carried over, not recomputed.
func FilterByCheckin(records []domain.RentalRecord, filter domain.CheckinFilter) []domain.RentalRecord {
	if filter == domain.FilterAll {
		return records
	}

	out := make([]domain.RentalRecord, 0, len(records)/2)
	for _, r := range records {
		if string(r.CheckinType) == string(filter) {
			out = append(out, r)
		}
	}
	return out
}
