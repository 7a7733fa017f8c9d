package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/suql/internal/compiler"
	"github.com/roach88/suql/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string // relationship schema file
}

// Finding is a single validation finding.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Queries  []string  `json:"queries"`
	Findings []Finding `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file.suql>",
		Short: "Check a SuQL script without composing SQL",
		Long: `Check a SuQL script without composing SQL.

Parses the script, resolves joins against the schema when one is given, and
runs static checks over the declared queries: selects without a table or
visible fields, short unions, references to undeclared queries and nesting
cycles.

Exit codes:
  0 - No findings
  1 - One or more findings
  2 - Command error (missing file, bad schema, unknown dialect)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "relationship schema file (.cue, .yaml, .json)")

	return cmd
}

func runValidate(opts *ValidateOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	in, err := LoadInput(scriptPath, opts.Schema, "", opts.Logger(formatter.DiagWriter()))
	if in == nil {
		return outputValidateError(formatter, toCLIError(err))
	}

	// Builder errors still leave the queries built so far in the session
	var findings []Finding
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		findings = append(findings, Finding{Code: loadErr.Code, Message: loadErr.Message, Line: loadErr.Line})
	}

	cat := in.Session.Catalog()
	formatter.Logf("Validating %d quer%s", len(cat.Names()), plural(len(cat.Names()), "y", "ies"))
	findings = append(findings, validateCatalog(cat)...)

	result := ValidationResult{
		Valid:    len(findings) == 0,
		Queries:  cat.Names(),
		Findings: findings,
	}
	if !result.Valid {
		return outputValidationFindings(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateCatalog runs the store validator and the cycle analysis.
func validateCatalog(cat queryir.Catalog) []Finding {
	var findings []Finding
	for _, w := range queryir.Validate(cat).Warnings {
		findings = append(findings, Finding{Code: ErrCodeValidation, Message: w})
	}
	for _, c := range compiler.AnalyzeCycles(cat) {
		findings = append(findings, Finding{Code: ErrCodeCycle, Message: c.Message})
	}
	return findings
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d quer%s valid\n", len(result.Queries), plural(len(result.Queries), "y", "ies"))
	return nil
}

// outputValidateError outputs an error that stopped validation.
func outputValidateError(formatter *OutputFormatter, e CLIError) error {
	_ = formatter.Error(e.Code, e.Message, nil)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", e.Code, e.Message))
}

// outputValidationFindings outputs the findings of a validation run.
func outputValidationFindings(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Findings[0].Code,
				Message: result.Findings[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, f := range result.Findings {
			if f.Line > 0 {
				fmt.Fprintf(formatter.Writer, "line %d\n", f.Line)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", f.Code, f.Message)
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(result.Findings)))
}
