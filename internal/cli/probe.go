package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ProbeResult is the output of the probe command.
type ProbeResult struct {
	Driver     string `json:"driver"`
	Dialect    string `json:"dialect"`
	Embedded   bool   `json:"embedded"`
	Savepoints bool   `json:"savepoints"`
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "probe",
		Short:         "Connect and report database capabilities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, rootOpts)
		},
	}
}

func runProbe(cmd *cobra.Command, opts *RootOptions) error {
	f := newFormatter(opts, cmd)

	db, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return fail(f, ExitCommandError, err)
	}
	defer closeDatabase(db)

	res := ProbeResult{
		Driver:     opts.config.Database.Driver,
		Dialect:    db.Dialect().String(),
		Embedded:   db.Dialect().Embedded(),
		Savepoints: db.Capabilities().Savepoints(),
	}
	return f.Success(res, fmt.Sprintf("driver=%s dialect=%s savepoints=%v",
		res.Driver, res.Dialect, res.Savepoints))
}
