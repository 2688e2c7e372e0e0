// Package rules provides the CEL-Go based segment engine used to narrow an
// analysis to a subset of rentals.
package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Engine compiles and caches segment expressions.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	segments map[string]*Segment
	maxCache int
}

// Segment is a compiled boolean predicate over a rental record.
type Segment struct {
	Expression string
	Program    cel.Program
}

// NewEngine creates a segment engine that keeps up to maxCache compiled expressions.
func NewEngine(maxCache int) (*Engine, error) {
	if maxCache <= 0 {
		maxCache = 100
	}

	// Variables exposed to segment expressions
	env, err := cel.NewEnv(
		cel.Variable("rental_id", cel.StringType),
		cel.Variable("car_id", cel.StringType),
		cel.Variable("checkin_type", cel.StringType),
		cel.Variable("state", cel.StringType),
		cel.Variable("delay", cel.DoubleType),
		cel.Variable("time_delta", cel.DoubleType),
		cel.Variable("previous_delay", cel.DoubleType),
		cel.Variable("delay_category", cel.StringType),
		cel.Variable("has_previous", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		segments: make(map[string]*Segment),
		maxCache: maxCache,
	}, nil
}

// Compile returns the compiled segment for expr, compiling it on first use.
func (e *Engine) Compile(expr string) (*Segment, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: expression is empty", domain.ErrInvalidSegment)
	}

	e.mu.RLock()
	seg, ok := e.segments[expr]
	e.mu.RUnlock()
	if ok {
		return seg, nil
	}

	seg, err := e.compile(expr)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.segments) >= e.maxCache {
		e.segments = make(map[string]*Segment)
	}
	e.segments[expr] = seg

	return seg, nil
}

// Validate compiles expr without caching it.
func (e *Engine) Validate(expr string) error {
	_, err := e.compile(strings.TrimSpace(expr))
	return err
}

// SegmentsCount returns the number of cached segments.
func (e *Engine) SegmentsCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.segments)
}

// Close drops all cached segments.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.segments = make(map[string]*Segment)
	return nil
}

func (e *Engine) compile(expr string) (*Segment, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSegment, issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must return bool, got %s", domain.ErrInvalidSegment, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSegment, err)
	}

	return &Segment{
		Expression: expr,
		Program:    program,
	}, nil
}

// Match evaluates the segment against one record.
func (s *Segment) Match(r domain.RentalRecord) (bool, error) {
	out, _, err := s.Program.Eval(activation(r))
	if err != nil {
		return false, fmt.Errorf("evaluate segment %q: %w", s.Expression, err)
	}

	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("segment %q returned %s", s.Expression, out.Type().TypeName())
	}
	return bool(b), nil
}

// Filter keeps the records matching the segment, preserving order.
// Records are copied as-is; derived fields are not recomputed.
func (s *Segment) Filter(records []domain.RentalRecord) ([]domain.RentalRecord, error) {
	out := make([]domain.RentalRecord, 0, len(records))
	for _, r := range records {
		ok, err := s.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func activation(r domain.RentalRecord) map[string]any {
	return map[string]any{
		"rental_id":      r.RentalID,
		"car_id":         r.CarID,
		"checkin_type":   string(r.CheckinType),
		"state":          r.State,
		"delay":          r.DelayAtCheckout,
		"time_delta":     r.TimeDeltaWithPrevious,
		"previous_delay": r.PreviousDelay,
		"delay_category": string(r.DelayCategory),
		"has_previous":   r.HasPreviousRental(),
	}
}
