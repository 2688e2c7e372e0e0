// Package dataset turns raw rental rows into the immutable dataset the
// analysis runs on, and hands it out once per process.
package dataset

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/YnaPqt/deploiement-getaround/internal/analysis"
	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// Reasons a raw row is dropped during cleaning.
const (
	DropMissingCarID   = "missing_car_id"
	DropMissingCheckin = "missing_checkin_type"
	DropNotEnded       = "not_ended"
)

// Clean keeps ended rentals that have a car and a check-in type, fills missing
// numbers and derives PreviousDelay and DelayCategory.
// An unknown check-in type is an input contract violation and fails the load.
func Clean(raw []*domain.RawRental) ([]domain.RentalRecord, map[string]int, error) {
	dropped := map[string]int{}
	records := make([]domain.RentalRecord, 0, len(raw))

	for _, r := range raw {
		switch {
		case r.CarID == "":
			dropped[DropMissingCarID]++
			continue
		case r.CheckinType == "":
			dropped[DropMissingCheckin]++
			continue
		case r.State != domain.StateEnded:
			dropped[DropNotEnded]++
			continue
		}

		ct, err := domain.ParseCheckinType(r.CheckinType)
		if err != nil {
			return nil, nil, err
		}

		rec := domain.RentalRecord{
			RentalID:              r.RentalID,
			CarID:                 r.CarID,
			CheckinType:           ct,
			State:                 r.State,
			PreviousEndedRentalID: r.PreviousEndedRentalID,
			TimeDeltaWithPrevious: math.Inf(1),
		}
		if r.DelayAtCheckout != nil {
			rec.DelayAtCheckout = *r.DelayAtCheckout
		}
		if r.TimeDeltaWithPrevious != nil {
			rec.TimeDeltaWithPrevious = *r.TimeDeltaWithPrevious
		}
		if rec.TimeDeltaWithPrevious < 0 {
			return nil, nil, &RowError{Position: r.Position, Reason: "negative time_delta_with_previous_rental_in_minutes"}
		}

		records = append(records, rec)
	}

	Derive(records)
	return records, dropped, nil
}

// Derive sets PreviousDelay from the preceding row of the whole table (the
// first row gets 0) and DelayCategory from the record's own delay.
// It must run once on the full cleaned table, before any filtering.
func Derive(records []domain.RentalRecord) {
	previous := 0.0
	for i := range records {
		records[i].PreviousDelay = previous
		records[i].DelayCategory = analysis.Categorize(records[i].DelayAtCheckout)
		previous = records[i].DelayAtCheckout
	}
}

// Build cleans raw rows and wraps them into a dataset.
func Build(raw []*domain.RawRental, source string) (*domain.Dataset, error) {
	records, dropped, err := Clean(raw)
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		Records:  records,
		Version:  Fingerprint(records),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Dropped:  dropped,
	}, nil
}

// Fingerprint hashes the analysis-relevant content of the records, in order.
func Fingerprint(records []domain.RentalRecord) string {
	h := sha256.New()
	var buf [8]byte
	for _, r := range records {
		h.Write([]byte(r.CarID))
		h.Write([]byte{0})
		h.Write([]byte(r.CheckinType))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.DelayAtCheckout))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.TimeDeltaWithPrevious))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
