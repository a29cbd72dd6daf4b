package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plan-player-analytics/Plan-sub022/internal/filter"
	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
)

// QueryResult is the JSON output of the query command.
type QueryResult struct {
	Steps    []filter.Step `json:"steps"`
	Count    int           `json:"count"`
	IDs      []int64       `json:"ids"`
	Warnings []string      `json:"warnings,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <filter-file>",
		Short: "Run a player filter document",
		Long: `Run the filters of a JSON filter document in order and report how
many players remain after each one.

The document is an array of {"kind": ..., "parameters": {...}} objects.
Each filter narrows the players matched so far; once no player is left the
remaining filters are reported as skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, args[0])
		},
	}
}

func runQuery(cmd *cobra.Command, opts *RootOptions, path string) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	q, err := queryir.Parse(path, data)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	lint := queryir.Validate(q)
	for _, w := range lint.Warnings {
		slog.Warn("filter document", "file", path, "warning", w)
	}
	f.VerboseLog("Loaded %d filter(s) from %s", len(q), path)

	db, err := openDatabase(ctx, opts)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	defer closeDatabase(db)

	res, err := filter.NewPlayerEngine(db).Apply(ctx, q)
	switch {
	case filter.IsUnknownKind(err), filter.IsInvalidParameters(err):
		return fail(f, ExitCommandError, err)
	case err != nil:
		return fail(f, ExitFailure, err)
	}

	out := QueryResult{
		Steps:    res.Summary(),
		Count:    res.Size(),
		IDs:      res.IDs(),
		Warnings: lint.Warnings,
	}
	return f.Success(out, strings.TrimSuffix(res.Trace(), "\n"))
}
