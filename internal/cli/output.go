package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Flexbotic/AppKalkulator-v2/internal/compiler"
	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/material"
	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Domain failure (incomplete cost table, unpriceable quote, failed scenario)
	ExitCommandError = 2 // Command error (invalid paths, unreadable files, bad definitions)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// newFormatter builds the formatter for one command invocation. Verbose
// logs go to stderr so they never corrupt JSON output.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // domain error code, e.g. "MISSING_COST_VALUE"
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err with its domain code and returns it as an ExitError
// carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	var details any
	var ce *costtable.Error
	if errors.As(err, &ce) && len(ce.Missing) > 0 {
		details = ce.Missing
	}
	_ = f.Error(ErrorCode(err), err.Error(), details)
	return WrapExitError(exitCode, message, err)
}

func (f *OutputFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Generic error codes for failures that carry no domain code.
const (
	ErrCodeGeneric     = "ERROR"
	ErrCodeCompile     = "COMPILE"
	ErrCodeCatalog     = "CATALOG"
	ErrCodeNotFound    = compiler.ErrCodeNotFound
	ErrCodeWriteFailed = "WRITE_FAILED"
	ErrCodeReadFailed  = "READ_FAILED"
)

// ErrorCode returns the domain code of err: a definition, cost-table,
// resolution or expression code when err carries one.
func ErrorCode(err error) string {
	var (
		le *compiler.LoadError
		ce *compiler.CompileError
		de *compiler.DefinitionError
		te *costtable.Error
		qe *quote.Error
		ee *expr.Error
		me *material.CatalogError
	)
	switch {
	case errors.As(err, &le):
		return le.Code
	case errors.As(err, &ce):
		return ErrCodeCompile
	case errors.As(err, &de):
		return string(de.Code)
	case errors.As(err, &te):
		return string(te.Code)
	case errors.As(err, &qe):
		return string(qe.Code)
	case errors.As(err, &ee):
		return string(ee.Code)
	case errors.As(err, &me):
		return ErrCodeCatalog
	}
	return ErrCodeGeneric
}
