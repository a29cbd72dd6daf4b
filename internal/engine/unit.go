package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
)

// State is the lifecycle state of a unit of work.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateCommitted
	// StateSkipped is a successful no-op: the precondition was false.
	StateSkipped
	// StateFailed means the operations, commit or rollback failed.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateCommitted:
		return "COMMITTED"
	case StateSkipped:
		return "DONE"
	case StateFailed:
		return "ROLLED_BACK_FAILED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateSkipped || s == StateFailed
}

// Operations is the body of a unit of work. It runs on the transaction the
// executor opened and owns it until it returns.
type Operations func(ctx context.Context, tx *sqlx.Tx) error

// UnitOfWork is a single-use bundle of operations that commit or roll back
// together. Create it with NewUnitOfWork and run it with Executor.Execute.
type UnitOfWork struct {
	name         string
	id           string
	precondition func() bool
	ops          Operations
	state        atomic.Int32
}

// UnitOption configures a UnitOfWork.
type UnitOption func(*UnitOfWork)

// WithPrecondition sets a check evaluated before any connection is opened.
// It must only look at caller state. A false result completes the unit of
// work as a successful no-op.
func WithPrecondition(fn func() bool) UnitOption {
	return func(u *UnitOfWork) {
		u.precondition = fn
	}
}

// WithID overrides the generated instance id.
func WithID(id string) UnitOption {
	return func(u *UnitOfWork) {
		u.id = id
	}
}

// WithIDGenerator draws the instance id from gen.
func WithIDGenerator(gen IDGenerator) UnitOption {
	return func(u *UnitOfWork) {
		u.id = gen.Generate()
	}
}

// NewUnitOfWork creates a unit of work in state CREATED.
func NewUnitOfWork(name string, ops Operations, opts ...UnitOption) *UnitOfWork {
	u := &UnitOfWork{name: name, ops: ops}
	for _, opt := range opts {
		opt(u)
	}
	if u.id == "" {
		u.id = UUIDv7Generator{}.Generate()
	}
	return u
}

// Name returns the unit of work name.
func (u *UnitOfWork) Name() string { return u.name }

// ID returns the instance id.
func (u *UnitOfWork) ID() string { return u.id }

// State returns the current lifecycle state.
func (u *UnitOfWork) State() State {
	return State(u.state.Load())
}

// start moves CREATED to RUNNING. Any other starting state is an error.
func (u *UnitOfWork) start() error {
	if u.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return nil
	}
	return &InvalidStateError{UnitOfWork: u.name, UnitID: u.id, State: u.State()}
}

func (u *UnitOfWork) finish(s State) {
	u.state.Store(int32(s))
}

func (u *UnitOfWork) shouldRun() bool {
	if u.precondition == nil {
		return true
	}
	return u.precondition()
}
