package domain

import "errors"

// Input contract violations. Callers wrap these with detail via fmt.Errorf("%w: ...").
var (
	ErrInvalidCheckin   = errors.New("invalid checkin type")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidRecord    = errors.New("invalid rental record")
	ErrInvalidSegment   = errors.New("invalid segment expression")
	ErrInvalidFeatures  = errors.New("invalid car features")
)
