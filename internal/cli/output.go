package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for panelctl commands.
const (
	ExitSuccess      = 0
	ExitDenied       = 1 // login rejected, navigation denied, session invalid
	ExitCommandError = 2 // bad flags, configuration or transport failure
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func denied(message string) *ExitError { return &ExitError{Code: ExitDenied, Message: message} }

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error; plain errors exit with ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter renders results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result prints data. In text mode text is written instead of data when set.
func (f *OutputFormatter) Result(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if text == "" {
		text = fmt.Sprint(data)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Failure prints a failed outcome; data may carry the partial result.
func (f *OutputFormatter) Failure(message string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "error", Data: data, Error: message})
	}
	_, err := fmt.Fprintf(f.Writer, "Error: %s\n", message)
	return err
}

// Notice prints an informational line; diagnostics go to ErrWriter in JSON mode.
func (f *OutputFormatter) Notice(format string, args ...any) {
	w := f.Writer
	if f.Format == "json" {
		w = f.errWriter()
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// VerboseLog writes only in verbose mode.
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
