package domain

import (
	"context"
	"time"
)

// Dataset is a cleaned, derived snapshot of ended rentals.
// It is shared read-only between requests and must not be mutated.
type Dataset struct {
	Records  []RentalRecord
	Version  string // content fingerprint, used to namespace cached results
	Source   string
	LoadedAt time.Time

	// Rows dropped during cleaning, by reason
	Dropped map[string]int
}

// DatasetSource hands out the dataset. Implementations load at most once per process.
type DatasetSource interface {
	Load(ctx context.Context) (*Dataset, error)
}
