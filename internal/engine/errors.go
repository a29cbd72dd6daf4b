package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes unit-of-work failures.
type ErrorCode string

const (
	// ErrCodeInitFailed indicates the connection, transaction or savepoint
	// could not be set up for a reason other than "savepoints unsupported".
	ErrCodeInitFailed ErrorCode = "INIT_FAILED"

	// ErrCodeOperationFailed indicates the unit of work's own operations
	// returned an error and the transaction was discarded.
	ErrCodeOperationFailed ErrorCode = "OPERATION_FAILED"

	// ErrCodeRollbackFailed indicates the operations failed and the rollback
	// that followed failed too. Both errors are carried.
	ErrCodeRollbackFailed ErrorCode = "ROLLBACK_FAILED"

	// ErrCodeCommitFailed indicates the operations succeeded but commit did not.
	ErrCodeCommitFailed ErrorCode = "COMMIT_FAILED"
)

// Stage names the executor step a failure happened in.
type Stage string

const (
	StageConnect   Stage = "connect"
	StageBegin     Stage = "begin"
	StageSavepoint Stage = "savepoint"
	StageOperation Stage = "operation"
	StageCommit    Stage = "commit"
)

// RollbackOutcome records what happened to the transaction after a failure.
type RollbackOutcome int

const (
	// RollbackNotAttempted: the failure happened before any write could occur.
	RollbackNotAttempted RollbackOutcome = iota
	// RollbackToSavepoint: rolled back to the savepoint and discarded the transaction.
	RollbackToSavepoint
	// RollbackUnavailable: no savepoint existed. The transaction was discarded
	// but no partial rollback was possible.
	RollbackUnavailable
	// RollbackFailed: the rollback itself failed, see OperationError.RollbackErr.
	RollbackFailed
	// RollbackDiscarded: the transaction had already ended, typically because
	// its context was cancelled. Every write was discarded with it.
	RollbackDiscarded
)

// String returns the outcome name used in logs and error text.
func (r RollbackOutcome) String() string {
	switch r {
	case RollbackNotAttempted:
		return "not attempted"
	case RollbackToSavepoint:
		return "rolled back to savepoint"
	case RollbackUnavailable:
		return "no savepoint, no partial rollback possible"
	case RollbackFailed:
		return "rollback failed"
	case RollbackDiscarded:
		return "transaction already ended, all writes discarded"
	default:
		return fmt.Sprintf("rollback(%d)", int(r))
	}
}

// OperationError is the single error type returned for a failed unit of work.
type OperationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// UnitOfWork and UnitID identify the failed instance.
	UnitOfWork string
	UnitID     string

	// Stage is the executor step that failed.
	Stage Stage

	// Cause is the underlying error.
	Cause error

	// Rollback tells whether a rollback was attempted and how it went.
	Rollback RollbackOutcome

	// RollbackErr is set when the rollback failed. It is never dropped.
	RollbackErr error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s: unit of work %q (id=%s) failed at %s: %v [%s]",
		e.Code, e.UnitOfWork, e.UnitID, e.Stage, e.Cause, e.Rollback)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf("; rollback error: %v", e.RollbackErr)
	}
	return msg
}

// Unwrap exposes both the cause and the rollback error to errors.Is/As.
func (e *OperationError) Unwrap() []error {
	if e.RollbackErr == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.RollbackErr}
}

// ErrInvalidState is matched by every InvalidStateError.
var ErrInvalidState = errors.New("invalid unit of work state")

// InvalidStateError is returned when a unit of work is executed again.
type InvalidStateError struct {
	UnitOfWork string
	UnitID     string
	State      State
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("unit of work %q (id=%s) cannot run from state %s", e.UnitOfWork, e.UnitID, e.State)
}

// Is makes errors.Is(err, ErrInvalidState) hold.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// IsOperationError returns true if err is or wraps an *OperationError.
func IsOperationError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe)
}

// IsRollbackFailure returns true if err reports a failed rollback.
// Uses errors.As to handle wrapped errors.
func IsRollbackFailure(err error) bool {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeRollbackFailed
	}
	return false
}

// IsInitError returns true if err reports an initialization failure.
func IsInitError(err error) bool {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeInitFailed
	}
	return false
}

// IsInvalidState returns true if err reports re-execution of a unit of work.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
