package cli

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/store"
)

// SchemaUnitOfWork names the unit of work that creates the tables.
const SchemaUnitOfWork = "create-schema"

// InitResult is the output of the init command.
type InitResult struct {
	Dialect       string `json:"dialect"`
	UnitID        string `json:"unit_id"`
	Savepoint     bool   `json:"savepoint"`
	Indexes       int    `json:"indexes"`
	IndexesFailed int    `json:"indexes_failed"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		Long: `Create the player analytics tables if they do not exist.

Tables are created in one transaction. Indexes are created afterwards on a
best-effort basis: a failing index is logged and counted but does not fail
the command.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *RootOptions) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	db, err := openDatabase(ctx, opts)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	defer closeDatabase(db)

	dialect := db.Dialect()
	u := engine.NewUnitOfWork(SchemaUnitOfWork, func(ctx context.Context, tx *sqlx.Tx) error {
		return store.ApplySchema(ctx, tx, dialect)
	})
	out, err := engine.NewExecutor(db).Execute(ctx, u)
	if err != nil {
		return fail(f, ExitFailure, err)
	}
	f.VerboseLog("schema created by %s (savepoint: %v)", u.ID(), out.Savepoint)

	indexes := store.Indexes()
	failed := db.ExecBestEffort(ctx, indexes...)

	res := InitResult{
		Dialect:       dialect.String(),
		UnitID:        u.ID(),
		Savepoint:     out.Savepoint,
		Indexes:       len(indexes) - failed,
		IndexesFailed: failed,
	}
	return f.Success(res, fmt.Sprintf("Schema ready (%s): %d index(es) created, %d failed",
		res.Dialect, res.Indexes, res.IndexesFailed))
}
