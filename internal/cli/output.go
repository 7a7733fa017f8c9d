package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/suql/internal/ir"
)

// Exit codes of suql commands.
const (
	ExitSuccess      = 0 // SQL composed, script valid, scenarios passed
	ExitFailure      = 1 // validation findings or failed scenarios
	ExitCommandError = 2 // unreadable input, bad schema, composition failure
)

// ExitError is returned by a command to choose the process exit code.
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

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is a coded error in command output.
type CLIError struct {
	Code    string `json:"code"` // E001, E101, ...
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// toCLIError codes err: loader errors keep their code and position, core
// errors map through MapErrorCode, anything else is E001.
func toCLIError(err error) CLIError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		e := CLIError{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Line > 0 {
			e.Message = fmt.Sprintf("%d:%d: %s", loadErr.Line, loadErr.Column, loadErr.Message)
		}
		return e
	}
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		return CLIError{Code: MapErrorCode(irErr.Code), Message: irErr.Error()}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// OutputFormatter writes command results as text or JSON. Results go to
// Writer; session logs and verbose notes go to Diag so JSON output stays
// parseable.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Diag    io.Writer
	Verbose bool
}

// newFormatter binds a formatter to the command's output streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	}
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// DiagWriter returns Diag, or Writer when no Diag is set.
func (f *OutputFormatter) DiagWriter() io.Writer {
	if f.Diag != nil {
		return f.Diag
	}
	return f.Writer
}

// Encode writes v as indented JSON. HTML escaping is off so comparison
// operators in SQL stay as written.
func (f *OutputFormatter) Encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Success writes data in an ok envelope, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// SQL writes composed queries: a name to SQL object in JSON, a SQL script
// otherwise (see formatSQL).
func (f *OutputFormatter) SQL(out map[string]string) error {
	if f.JSON() {
		return f.Success(out)
	}
	_, err := io.WriteString(f.Writer, formatSQL(out))
	return err
}

// Error writes a single coded error.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Errors writes several coded errors under a heading. In JSON the first
// error is the envelope error and data lists all of them.
func (f *OutputFormatter) Errors(heading string, errs []CLIError) error {
	if len(errs) == 0 {
		return nil
	}
	if f.JSON() {
		return f.Encode(CLIResponse{Status: "error", Error: &errs[0], Data: errs})
	}
	fmt.Fprintf(f.Writer, "✗ %s\n\n", heading)
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s: %s\n", e.Code, e.Message)
	}
	return nil
}

// Logf writes a note to DiagWriter under --verbose.
func (f *OutputFormatter) Logf(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.DiagWriter(), format+"\n", args...)
}

// formatSQL renders composed queries as a SQL script: one statement per
// query, sorted by name, each preceded by a comment naming it. A single
// query is written without the comment.
func formatSQL(out map[string]string) string {
	if len(out) == 1 {
		for _, sql := range out {
			return sql + ";\n"
		}
	}

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %s\n%s;\n", name, out[name])
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
