package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/plan-player-analytics/Plan-sub022/internal/backup"
	"github.com/plan-player-analytics/Plan-sub022/internal/engine"
	"github.com/plan-player-analytics/Plan-sub022/internal/filter"
	"github.com/plan-player-analytics/Plan-sub022/internal/lookup"
	"github.com/plan-player-analytics/Plan-sub022/internal/queryir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (transaction rolled back, merge rejected)
	ExitCommandError = 2 // Command error (bad config, unreadable file, unknown filter)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote the error through an
	// OutputFormatter, so main must not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// IsReported reports whether err was already written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode returns the stable machine-readable code reported for err.
func ErrorCode(err error) string {
	var (
		oe *engine.OperationError
		pe *queryir.ParseError
		ue *lookup.UnmappedError
	)
	switch {
	case errors.As(err, &ue):
		return "UNMAPPED_REFERENCE"
	case errors.As(err, &oe):
		return string(oe.Code)
	case engine.IsInvalidState(err):
		return "INVALID_STATE"
	case filter.IsUnknownKind(err):
		return "UNKNOWN_FILTER_KIND"
	case filter.IsInvalidParameters(err):
		return "INVALID_FILTER_PARAMETERS"
	case errors.As(err, &pe):
		return "INVALID_DOCUMENT"
	case errors.Is(err, backup.ErrNotFound):
		return "SNAPSHOT_NOT_FOUND"
	default:
		return "ERROR"
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. Text output uses text when given, data otherwise.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == "" {
		text = fmt.Sprint(data)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Fail reports err in the configured format. Operation errors carry their
// rollback outcome as details.
func (f *OutputFormatter) Fail(err error) error {
	var details any
	var oe *engine.OperationError
	if errors.As(err, &oe) {
		details = map[string]string{
			"unit_of_work": oe.UnitOfWork,
			"unit_id":      oe.UnitID,
			"stage":        string(oe.Stage),
			"rollback":     oe.Rollback.String(),
		}
	}

	code := ErrorCode(err)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error(), Details: details},
		})
	}

	w := f.errWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, err)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
