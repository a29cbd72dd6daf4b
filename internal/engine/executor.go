package engine

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// SavepointName is the savepoint every unit of work creates.
const SavepointName = "plandb_uow"

// connector is the part of the pool the executor needs.
type connector interface {
	Connx(ctx context.Context) (*sqlx.Conn, error)
}

// Outcome describes a finished execution.
type Outcome struct {
	State     State
	Savepoint bool
	Duration  time.Duration
}

// Executor runs units of work. It is safe for concurrent use; every
// execution checks out its own connection.
type Executor struct {
	pool    connector
	caps    *store.Capabilities
	metrics *Metrics

	// execSavepoint runs savepoint statements on tx.
	execSavepoint func(ctx context.Context, tx *sqlx.Tx, stmt string) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics sets the collectors updated by the executor.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithCapabilities replaces the capabilities taken from the database.
func WithCapabilities(c *store.Capabilities) ExecutorOption {
	return func(e *Executor) {
		e.caps = c
	}
}

// NewExecutor creates an executor over db, sharing db's Capabilities.
func NewExecutor(db *store.Database, opts ...ExecutorOption) *Executor {
	e := &Executor{
		pool:          db.Pool(),
		caps:          db.Capabilities(),
		execSavepoint: execStatement,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Capabilities returns the capabilities this executor consults.
func (e *Executor) Capabilities() *store.Capabilities {
	return e.caps
}

// Execute runs u once. It returns an *InvalidStateError if u already ran,
// and an *OperationError for every other failure. A false precondition is
// a success with State DONE and no connection opened.
func (e *Executor) Execute(ctx context.Context, u *UnitOfWork) (Outcome, error) {
	if err := u.start(); err != nil {
		return Outcome{State: u.State()}, err
	}

	started := time.Now()
	settled := false
	defer func() {
		if settled {
			return
		}
		// A panic in the precondition or the operations still ends the unit.
		p := recover()
		u.finish(StateFailed)
		e.metrics.observe(StateFailed)
		e.metrics.Duration.Observe(time.Since(started).Seconds())
		if p == nil {
			// runtime.Goexit
			return
		}
		slog.Error("unit of work panicked", "name", u.name, "id", u.id, "panic", p)
		panic(p)
	}()

	if !u.shouldRun() {
		settled = true
		u.finish(StateSkipped)
		e.metrics.observe(StateSkipped)
		slog.Debug("unit of work skipped", "name", u.name, "id", u.id)
		return Outcome{State: StateSkipped}, nil
	}

	out, err := e.run(ctx, u)
	settled = true
	out.Duration = time.Since(started)

	u.finish(out.State)
	e.metrics.observe(out.State)
	e.metrics.Duration.Observe(out.Duration.Seconds())

	if err != nil {
		slog.Warn("unit of work failed", "name", u.name, "id", u.id, "error", err)
		return out, err
	}
	slog.Debug("unit of work committed",
		"name", u.name,
		"id", u.id,
		"savepoint", out.Savepoint,
		"duration", out.Duration,
	)
	return out, nil
}

func (e *Executor) run(ctx context.Context, u *UnitOfWork) (Outcome, error) {
	out := Outcome{State: StateFailed}

	conn, err := e.pool.Connx(ctx)
	if err != nil {
		return out, opError(u, ErrCodeInitFailed, StageConnect, err)
	}
	defer conn.Close()

	tx, savepoint, err := e.begin(ctx, conn, u)
	if err != nil {
		return out, err
	}
	out.Savepoint = savepoint

	// Discards the transaction if the operations panic.
	settled := false
	defer func() {
		if !settled {
			_ = tx.Rollback()
		}
	}()

	if opErr := u.ops(ctx, tx); opErr != nil {
		settled = true
		oe := opError(u, ErrCodeOperationFailed, StageOperation, opErr)
		oe.Rollback, oe.RollbackErr = e.rollback(ctx, tx, savepoint)
		if oe.Rollback == RollbackFailed {
			oe.Code = ErrCodeRollbackFailed
		}
		return out, oe
	}

	settled = true
	if err := tx.Commit(); err != nil {
		return out, opError(u, ErrCodeCommitFailed, StageCommit, err)
	}

	out.State = StateCommitted
	return out, nil
}

// begin opens the transaction and, when allowed, the savepoint. It reports
// whether a savepoint exists.
func (e *Executor) begin(ctx context.Context, conn *sqlx.Conn, u *UnitOfWork) (*sqlx.Tx, bool, error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, opError(u, ErrCodeInitFailed, StageBegin, err)
	}

	if !e.caps.Savepoints() {
		return tx, false, nil
	}

	err = e.execSavepoint(ctx, tx, querysql.SavepointSQL(SavepointName))
	if err == nil {
		return tx, true, nil
	}

	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		slog.Warn("discard transaction after savepoint failure", "name", u.name, "id", u.id, "error", rbErr)
	}

	if !store.IsSavepointUnsupported(err) {
		return nil, false, opError(u, ErrCodeInitFailed, StageSavepoint, err)
	}

	if e.caps.DisableSavepoints() {
		e.metrics.SavepointsDisabled.Inc()
		slog.Warn("engine rejected savepoint, continuing without savepoints", "name", u.name, "error", err)
	}

	// The rejected statement may have aborted the transaction, so start a
	// fresh one without a savepoint.
	tx, err = conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, opError(u, ErrCodeInitFailed, StageBegin, err)
	}
	return tx, false, nil
}

// rollback undoes the failed operations. With a savepoint it rolls back to
// it first, then the transaction is discarded either way. The rollback runs
// even when ctx is already cancelled.
func (e *Executor) rollback(ctx context.Context, tx *sqlx.Tx, savepoint bool) (RollbackOutcome, error) {
	if !savepoint {
		if err := discard(tx); err != nil {
			return RollbackFailed, err
		}
		return RollbackUnavailable, nil
	}

	spErr := e.execSavepoint(context.WithoutCancel(ctx), tx, querysql.RollbackToSavepointSQL(SavepointName))
	if errors.Is(spErr, sql.ErrTxDone) {
		// database/sql rolled the transaction back when ctx was cancelled.
		if err := discard(tx); err != nil {
			return RollbackFailed, err
		}
		return RollbackDiscarded, nil
	}
	if err := errors.Join(spErr, discard(tx)); err != nil {
		return RollbackFailed, err
	}
	return RollbackToSavepoint, nil
}

// discard rolls tx back. A transaction already ended by its context counts
// as rolled back.
func discard(tx *sqlx.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func execStatement(ctx context.Context, tx *sqlx.Tx, stmt string) error {
	_, err := tx.ExecContext(ctx, stmt)
	return err
}

func opError(u *UnitOfWork, code ErrorCode, stage Stage, cause error) *OperationError {
	return &OperationError{
		Code:       code,
		UnitOfWork: u.name,
		UnitID:     u.id,
		Stage:      stage,
		Cause:      cause,
		Rollback:   RollbackNotAttempted,
	}
}
