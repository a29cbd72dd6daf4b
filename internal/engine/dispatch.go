package engine

import (
	"context"
	"log/slog"

	"github.com/go-pkgz/syncs"
)

// Repeater retries a function. *repeater.Repeater from go-pkgz/repeater
// satisfies it.
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Result is the outcome of a dispatched unit of work.
type Result struct {
	// Seq is the submission number from the dispatcher clock.
	Seq      int64
	Name     string
	ID       string
	Outcome  Outcome
	Attempts int
	Err      error
}

// Dispatcher runs units of work asynchronously on a bounded worker pool,
// one connection per running unit. Submission never blocks the caller.
// No ordering is guaranteed between submissions; callers that need order
// use a dispatcher with a single worker.
type Dispatcher struct {
	exec  *Executor
	group *syncs.SizedGroup
	clock *Clock
}

// NewDispatcher creates a dispatcher running at most workers units at once.
func NewDispatcher(exec *Executor, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		exec:  exec,
		group: syncs.NewSizedGroup(workers),
		clock: NewClock(),
	}
}

// Submit schedules u and returns a channel receiving its single Result.
func (d *Dispatcher) Submit(ctx context.Context, u *UnitOfWork) <-chan Result {
	res := make(chan Result, 1)
	seq := d.clock.Next()
	d.group.Go(func(context.Context) {
		out, err := d.exec.Execute(ctx, u)
		res <- Result{Seq: seq, Name: u.Name(), ID: u.ID(), Outcome: out, Attempts: 1, Err: err}
		close(res)
	})
	return res
}

// SubmitRetrying schedules a unit of work that is retried by rep on failure.
// Units of work are single-use, so build is called for every attempt. An
// error matching one of criticals (by errors.Is) stops the retries. The
// Result carries the last attempt's outcome and error.
func (d *Dispatcher) SubmitRetrying(ctx context.Context, build func() *UnitOfWork, rep Repeater, criticals ...error) <-chan Result {
	res := make(chan Result, 1)
	seq := d.clock.Next()
	d.group.Go(func(context.Context) {
		r := Result{Seq: seq}
		err := rep.Do(ctx, func() error {
			u := build()
			r.Attempts++
			r.Name, r.ID = u.Name(), u.ID()
			r.Outcome, r.Err = d.exec.Execute(ctx, u)
			if r.Err != nil && r.Attempts > 1 {
				slog.Debug("retry failed", "name", r.Name, "attempt", r.Attempts, "error", r.Err)
			}
			return r.Err
		}, criticals...)
		if r.Err == nil && err != nil {
			// rep gave up before a single attempt, e.g. cancelled context
			r.Err = err
		}
		res <- r
		close(res)
	})
	return res
}

// Submitted returns the number of units of work submitted so far.
func (d *Dispatcher) Submitted() int64 {
	return d.clock.Current()
}

// Wait blocks until every submitted unit of work has finished.
func (d *Dispatcher) Wait() {
	d.group.Wait()
}
