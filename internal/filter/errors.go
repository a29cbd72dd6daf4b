package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is matched by every *ParameterError.
	ErrInvalidParameters = errors.New("invalid filter parameters")

	// ErrCompleteSet is returned by a filter that selects every player.
	// It is a signal, not a failure.
	ErrCompleteSet = errors.New("filter selects the complete set")

	// ErrUnknownKind is matched by every *UnknownKindError.
	ErrUnknownKind = errors.New("unknown filter kind")
)

// ParameterError reports a missing or malformed filter parameter.
type ParameterError struct {
	Kind      string
	Parameter string
	Reason    string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("filter %s: parameter %q: %s", e.Kind, e.Parameter, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidParameters) hold.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// UnknownKindError reports a filter kind with no registered filter.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown filter kind %q", e.Kind)
}

// Is makes errors.Is(err, ErrUnknownKind) hold.
func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownKind
}

// IsUnknownKind returns true if err is or wraps an *UnknownKindError.
func IsUnknownKind(err error) bool {
	return errors.Is(err, ErrUnknownKind)
}

// IsInvalidParameters returns true if err is or wraps a *ParameterError.
func IsInvalidParameters(err error) bool {
	return errors.Is(err, ErrInvalidParameters)
}
