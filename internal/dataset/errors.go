package dataset

import (
	"fmt"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// RowError reports a raw row that breaks the input contract.
type RowError struct {
	Position int
	Reason   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%v: row %d: %s", domain.ErrInvalidRecord, e.Position, e.Reason)
}

// Unwrap lets errors.Is match domain.ErrInvalidRecord.
func (e *RowError) Unwrap() error {
	return domain.ErrInvalidRecord
}
