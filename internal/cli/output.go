package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/szerviz/internal/backup"
	"github.com/roach88/szerviz/internal/license"
	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/sms"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation (validation, not found, license limit, ...)
	ExitCommandError = 2 // Command error (bad flags, config, database unavailable, ...)
)

// Error codes reported in CLIError.Code that do not come from lifecycle.
const (
	ErrCodeGeneric       = "ERROR"
	ErrCodeUsage         = "USAGE"
	ErrCodeConfig        = "CONFIG"
	ErrCodeStorage       = "STORAGE"
	ErrCodeLicenseLimit  = "LICENSE_LIMIT"
	ErrCodeProRequired   = "PRO_REQUIRED"
	ErrCodeMessageFormat = "MESSAGE"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written through an
	// OutputFormatter and must not be printed again.
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
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for notices and diagnostics (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // lifecycle code or one of the ErrCode constants
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", details)
	}
	return nil
}

// Notice writes an informational line to ErrWriter so it never mixes with
// JSON on Writer.
func (f *OutputFormatter) Notice(format string, args ...interface{}) {
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
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

// Fail reports err through the formatter and returns the ExitError the
// command should return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit, details := classify(err)
	msg := err.Error()
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil {
		msg = exitErr.Err.Error()
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		msg = fmt.Sprintf("%s (%s)", msg, ve.Error())
	}
	_ = f.Error(code, msg, details)
	if exitErr != nil {
		exitErr.Reported = true
		return exitErr
	}
	e := WrapExitError(exit, code, err)
	e.Reported = true
	return e
}

// usageError is a command-line mistake (bad argument or flag value).
func usageError(format string, args ...interface{}) *ExitError {
	return WrapExitError(ExitCommandError, ErrCodeUsage, fmt.Errorf(format, args...))
}

// classify maps an error to its CLI error code, exit code and details.
func classify(err error) (string, int, interface{}) {
	var (
		lcErr     *lifecycle.Error
		schemaErr *backup.SchemaError
		limitErr  *license.LimitError
		featErr   *license.FeatureError
		exitErr   *ExitError
	)
	switch {
	case errors.As(err, &exitErr) && exitErr.Message != "":
		return exitErr.Message, exitErr.Code, nil
	case errors.As(err, &schemaErr):
		return string(lifecycle.ErrCodeImportSchema), ExitFailure, schemaErr.Violations
	case errors.As(err, &lcErr):
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return string(lcErr.Code), ExitFailure, map[string]string{"field": ve.Field}
		}
		return string(lcErr.Code), ExitFailure, nil
	case errors.As(err, &limitErr):
		return ErrCodeLicenseLimit, ExitFailure, map[string]int{"active": limitErr.Active, "limit": limitErr.Limit}
	case errors.As(err, &featErr):
		return ErrCodeProRequired, ExitFailure, map[string]string{"feature": string(featErr.Feature)}
	case errors.Is(err, sms.ErrDiagnosisRequired):
		return ErrCodeMessageFormat, ExitFailure, nil
	}
	return ErrCodeStorage, ExitCommandError, nil
}
