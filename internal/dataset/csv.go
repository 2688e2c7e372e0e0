package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// Column names of the rentals_data export.
const (
	colRentalID         = "rental_id"
	colCarID            = "car_id"
	colCheckinType      = "checkin_type"
	colState            = "state"
	colDelay            = "delay_at_checkout_in_minutes"
	colPreviousRentalID = "previous_ended_rental_id"
	colTimeDelta        = "time_delta_with_previous_rental_in_minutes"
)

var requiredColumns = []string{colCarID, colCheckinType, colState, colDelay, colTimeDelta}

// CSVFile reads rentals from a CSV export on disk.
type CSVFile struct {
	Path string
}

// Name identifies the source in logs and reports.
func (f CSVFile) Name() string {
	return "csv:" + f.Path
}

// ReadRentals opens and parses the file.
func (f CSVFile) ReadRentals(ctx context.Context) ([]*domain.RawRental, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open rentals file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses rental rows. The first line must be a header naming at least
// the required columns; extra columns are ignored. Empty, "NA" and "NaN"
// cells are missing values.
func ReadCSV(r io.Reader) ([]*domain.RawRental, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, header expected", domain.ErrInvalidRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidRecord, col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rentals []*domain.RawRental
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		delay, err := parseOptionalFloat(cell(row, colDelay))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %v", domain.ErrInvalidRecord, line, colDelay, err)
		}
		delta, err := parseOptionalFloat(cell(row, colTimeDelta))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %v", domain.ErrInvalidRecord, line, colTimeDelta, err)
		}

		rentals = append(rentals, &domain.RawRental{
			Position:              len(rentals),
			RentalID:              missingAsEmpty(cell(row, colRentalID)),
			CarID:                 missingAsEmpty(cell(row, colCarID)),
			CheckinType:           missingAsEmpty(cell(row, colCheckinType)),
			State:                 missingAsEmpty(cell(row, colState)),
			DelayAtCheckout:       delay,
			PreviousEndedRentalID: missingAsEmpty(cell(row, colPreviousRentalID)),
			TimeDeltaWithPrevious: delta,
		})
	}

	return rentals, nil
}

// WriteCSV writes rentals in the rentals_data layout.
func WriteCSV(w io.Writer, rentals []*domain.RawRental) error {
	writer := csv.NewWriter(w)
	header := []string{colRentalID, colCarID, colCheckinType, colState, colDelay, colPreviousRentalID, colTimeDelta}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range rentals {
		row := []string{
			r.RentalID,
			r.CarID,
			r.CheckinType,
			r.State,
			formatOptionalFloat(r.DelayAtCheckout),
			r.PreviousEndedRentalID,
			formatOptionalFloat(r.TimeDeltaWithPrevious),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

func missingAsEmpty(s string) string {
	if isMissing(s) {
		return ""
	}
	return s
}

func parseOptionalFloat(s string) (*float64, error) {
	if isMissing(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
