package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/fieldsync/internal/forms"
	"github.com/roach88/fieldsync/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (rejected form, store failure, scenarios failed)
	ExitCommandError = 2 // Command error (bad flags, unreadable input, database cannot be opened)
)

// Error codes reported in the JSON envelope and the text error line.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeBadInput      = "E002" // Malformed flag or input document
	ErrCodeConfig        = "E003" // Configuration could not be resolved
	ErrCodeOpenDB        = "E004" // Database could not be opened
	ErrCodeNotFound      = "E005" // Path or submission not found
	ErrCodeValidation    = "E101" // Form or record rejected before any I/O
	ErrCodeDuplicateName = "E102" // Aggregator name already in the local log
	ErrCodeIoFailure     = "E201" // Storage medium read or write failed
	ErrCodeCorruptLog    = "E202" // Stored log does not decode
	ErrCodeRemote        = "E301" // Remote API unavailable or not configured
	ErrCodeTestFailed    = "E401" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Silent is set when the command has already reported the failure.
	Silent bool
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
// Errors that are not an ExitError come from flag and argument parsing and
// map to ExitCommandError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// ErrorCode classifies err for the error envelope.
func ErrorCode(err error) string {
	if kind, ok := store.KindOf(err); ok {
		switch kind {
		case store.KindValidation:
			return ErrCodeValidation
		case store.KindIoFailure:
			return ErrCodeIoFailure
		case store.KindCorruptLog:
			return ErrCodeCorruptLog
		}
	}
	switch {
	case forms.IsDuplicateName(err):
		return ErrCodeDuplicateName
	case forms.IsValidation(err), errors.Is(err, forms.ErrUnknownForm):
		return ErrCodeValidation
	case errors.Is(err, forms.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, forms.ErrNoRemote):
		return ErrCodeRemote
	}
	var codeErr *codedError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	return ErrCodeGeneric
}

// codedError attaches an error code to an error that carries none of its own.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	return &codedError{code: code, err: err}
}

// errorDetails returns structured details for err, if any.
func errorDetails(err error) any {
	var ve *forms.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text
// mode, text is printed instead of data when it is non-empty.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if text != "" {
		_, err := fmt.Fprintln(f.Writer, text)
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
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

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
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
