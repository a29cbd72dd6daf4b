package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
)

// ProbeSavepoint is the savepoint name used by ProbeCapabilities.
const ProbeSavepoint = "plandb_probe"

// Capabilities records what the connected engine is known to support.
//
// Savepoint support starts from a probe and can only be withdrawn. Once any
// executor observes the engine rejecting a savepoint the flag is cleared for
// every executor sharing this value, for the rest of the process.
type Capabilities struct {
	noSavepoints atomic.Bool
}

// NewCapabilities returns capabilities with savepoint support set as given.
func NewCapabilities(savepoints bool) *Capabilities {
	c := &Capabilities{}
	c.noSavepoints.Store(!savepoints)
	return c
}

// Savepoints reports whether units of work should create a savepoint.
func (c *Capabilities) Savepoints() bool {
	return !c.noSavepoints.Load()
}

// DisableSavepoints withdraws savepoint support. It reports whether this call
// changed the flag, so exactly one caller observes the downgrade.
func (c *Capabilities) DisableSavepoints() bool {
	return c.noSavepoints.CompareAndSwap(false, true)
}

// ProbeCapabilities opens a throwaway transaction and tries the full
// savepoint cycle. An unsupported-feature answer from the engine yields
// capabilities without savepoints; any other failure is returned.
func ProbeCapabilities(ctx context.Context, db *sqlx.DB) (*Capabilities, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("probe capabilities: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		querysql.SavepointSQL(ProbeSavepoint),
		querysql.RollbackToSavepointSQL(ProbeSavepoint),
		querysql.ReleaseSavepointSQL(ProbeSavepoint),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if IsSavepointUnsupported(err) {
				slog.Info("engine does not support savepoints", "error", err)
				return NewCapabilities(false), nil
			}
			return nil, fmt.Errorf("probe capabilities: %w", err)
		}
	}

	return NewCapabilities(true), nil
}
