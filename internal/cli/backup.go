package cli

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/spf13/cobra"

	"github.com/plan-player-analytics/Plan-sub022/internal/backup"
	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
)

// ExportResult is the output of the export command.
type ExportResult struct {
	Key      string `json:"key"`
	Servers  int    `json:"servers"`
	Users    int    `json:"users"`
	UserInfo int    `json:"user_info"`
	Sessions int    `json:"sessions"`
	Bytes    int    `json:"bytes"`
}

// MergeResult is the output of the merge command.
type MergeResult struct {
	Key      string             `json:"key"`
	UnitID   string             `json:"unit_id"`
	State    string             `json:"state"`
	Attempts int                `json:"attempts"`
	Report   backup.MergeReport `json:"report"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "export <key>",
		Short:         "Write a snapshot of the database to the backup sink",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, args[0])
		},
	}
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <key>",
		Short: "Merge a snapshot from the backup sink into the database",
		Long: `Merge a snapshot into the database in a single transaction.

Servers and players are matched by uuid. Identifiers of the snapshot are
translated to the identifiers of this database before user info and
sessions are inserted. Rows that already exist are skipped, so merging the
same snapshot twice is harmless. A reference that cannot be translated
rolls the whole merge back.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, rootOpts, args[0])
		},
	}
}

func runExport(cmd *cobra.Command, opts *RootOptions, key string) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	sink, err := openSink(ctx, opts.config.Backup)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	db, err := openDatabase(ctx, opts)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	defer closeDatabase(db)

	snap, err := backup.Export(ctx, db.Pool())
	if err != nil {
		return fail(f, ExitFailure, err)
	}
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return fail(f, ExitFailure, err)
	}
	if err := sink.Put(ctx, key, buf.Bytes()); err != nil {
		return fail(f, ExitFailure, err)
	}

	res := ExportResult{
		Key:      key,
		Servers:  len(snap.Servers),
		Users:    len(snap.Users),
		UserInfo: len(snap.UserInfo),
		Sessions: len(snap.Sessions),
		Bytes:    buf.Len(),
	}
	return f.Success(res, fmt.Sprintf("Exported %s: %d server(s), %d user(s), %d session(s)",
		key, res.Servers, res.Users, res.Sessions))
}

func runMerge(cmd *cobra.Command, opts *RootOptions, key string) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()

	sink, err := openSink(ctx, opts.config.Backup)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	data, err := sink.Get(ctx, key)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, backup.ErrNotFound) {
			code = ExitCommandError
		}
		return fail(f, code, err)
	}
	snap, err := backup.Decode(bytes.NewReader(data))
	if err != nil {
		return fail(f, ExitCommandError, err)
	}

	db, err := openDatabase(ctx, opts)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	defer closeDatabase(db)

	var report backup.MergeReport
	dispatcher := engine.NewDispatcher(engine.NewExecutor(db), opts.config.Workers)
	rep := repeater.New(&strategy.Backoff{Repeats: opts.config.Retries, Duration: 200 * time.Millisecond, Factor: 2})
	r := <-dispatcher.SubmitRetrying(ctx, func() *engine.UnitOfWork {
		report = backup.MergeReport{}
		return backup.NewMergeUnit(snap, &report)
	}, rep, lookup.ErrUnmapped, engine.ErrInvalidState)
	dispatcher.Wait()

	if r.Err != nil {
		return fail(f, ExitFailure, r.Err)
	}
	for _, rm := range report.Remaps {
		f.VerboseLog("%s: %d mapped, %d unmapped", rm.Field, rm.Mapped, rm.Unmapped)
	}

	res := MergeResult{Key: key, UnitID: r.ID, State: r.Outcome.State.String(), Attempts: r.Attempts, Report: report}
	return f.Success(res, fmt.Sprintf("Merged %s (%s): %d server(s), %d user(s), %d session(s) added, %d session(s) skipped",
		key, res.State, report.ServersAdded, report.UsersAdded, report.SessionsAdded, report.SessionsSkipped))
}
