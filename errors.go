package signspace

import (
	"errors"
	"fmt"

	"github.com/lsfkit/signspace/coherence"
	"github.com/lsfkit/signspace/model"
	"github.com/lsfkit/signspace/tracker"
)

var (
	// ErrNotFound is returned when a reference or connection id is absent.
	ErrNotFound = errors.New("not found")

	// ErrMapNotFound is returned when a map id is absent.
	ErrMapNotFound = errors.New("map not found")

	// ErrNegativeRadius is returned when a proximity radius is negative.
	ErrNegativeRadius = errors.New("radius must not be negative")
)

// ErrInvalidStrength indicates a connection strength outside [0,1].
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidStrength struct {
	Strength float64
	cause    error
}

func (e *ErrInvalidStrength) Error() string {
	return fmt.Sprintf("invalid strength: %g outside [0,1]", e.Strength)
}

func (e *ErrInvalidStrength) Unwrap() error { return e.cause }

// ErrTypeChange indicates an attempt to change a reference's type, which is
// immutable after creation.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeChange struct {
	ID    uint64
	From  model.ReferenceType
	To    model.ReferenceType
	cause error
}

func (e *ErrTypeChange) Error() string {
	return fmt.Sprintf("reference %d: type change %s -> %s not supported", e.ID, e.From, e.To)
}

func (e *ErrTypeChange) Unwrap() error { return e.cause }

// ErrInvalidReferenceType indicates a type outside the closed enumeration.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidReferenceType struct {
	Type  model.ReferenceType
	cause error
}

func (e *ErrInvalidReferenceType) Error() string {
	return fmt.Sprintf("invalid reference type: %q", string(e.Type))
}

func (e *ErrInvalidReferenceType) Unwrap() error { return e.cause }

// CoherenceRejectionError is returned when an update's coherence pre-flight
// finds error-severity issues. The full report is attached so callers can
// decide policy.
type CoherenceRejectionError struct {
	Report *coherence.Report
}

func (e *CoherenceRejectionError) Error() string {
	return fmt.Sprintf("rejected by coherence pre-flight: %d error(s), %d warning(s)",
		e.Report.Errors(), e.Report.Warnings())
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var is *tracker.ErrInvalidStrength
	if errors.As(err, &is) {
		return &ErrInvalidStrength{Strength: is.Strength, cause: err}
	}
	var tc *tracker.ErrTypeChange
	if errors.As(err, &tc) {
		return &ErrTypeChange{ID: tc.ID, From: tc.From, To: tc.To, cause: err}
	}
	var it *tracker.ErrInvalidReferenceType
	if errors.As(err, &it) {
		return &ErrInvalidReferenceType{Type: it.Type, cause: err}
	}
	var nt *tracker.ErrNegativeThreshold
	if errors.As(err, &nt) {
		return fmt.Errorf("%w: %w", ErrNegativeRadius, err)
	}

	return err
}
