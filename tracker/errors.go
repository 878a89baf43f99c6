package tracker

import (
	"errors"
	"fmt"

	"github.com/lsfkit/signspace/model"
)

var (
	// ErrNilReference is returned when a nil reference is tracked.
	ErrNilReference = errors.New("reference must not be nil")
)

// ErrTypeChange indicates an attempt to change a reference's type through the
// replace path. Types are immutable after creation.
type ErrTypeChange struct {
	ID   uint64
	From model.ReferenceType
	To   model.ReferenceType
}

func (e *ErrTypeChange) Error() string {
	return fmt.Sprintf("reference %d: type change %s -> %s not supported", e.ID, e.From, e.To)
}

// ErrInvalidReferenceType indicates a type outside the closed enumeration.
type ErrInvalidReferenceType struct {
	Type model.ReferenceType
}

func (e *ErrInvalidReferenceType) Error() string {
	return fmt.Sprintf("invalid reference type: %q", string(e.Type))
}

// ErrInvalidActivationState indicates a state outside the closed enumeration.
type ErrInvalidActivationState struct {
	State model.ActivationState
}

func (e *ErrInvalidActivationState) Error() string {
	return fmt.Sprintf("invalid activation state: %q", string(e.State))
}

// ErrInvalidStrength indicates a relationship strength outside [0,1].
type ErrInvalidStrength struct {
	Strength float64
}

func (e *ErrInvalidStrength) Error() string {
	return fmt.Sprintf("relationship strength %g outside [0,1]", e.Strength)
}

// ErrInvalidWeight indicates an importance or persistence score outside [0,1].
type ErrInvalidWeight struct {
	Field string
	Value float64
}

func (e *ErrInvalidWeight) Error() string {
	return fmt.Sprintf("%s %g outside [0,1]", e.Field, e.Value)
}

// ErrNegativeThreshold indicates a negative proximity threshold.
type ErrNegativeThreshold struct {
	Threshold float64
}

func (e *ErrNegativeThreshold) Error() string {
	return fmt.Sprintf("proximity threshold must not be negative, got %g", e.Threshold)
}
