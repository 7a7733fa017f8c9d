package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema  string   // relationship schema file
	Queries []string // query names to compile
	Dialect string   // overrides the schema dialect
	Output  string   // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file.suql>",
		Short: "Compile a SuQL script to SQL",
		Long: `Compile a SuQL script to SQL.

Without --query the main query is compiled, or every query when the script
has no main query. --query all compiles every query.

Examples:
  suql compile report.suql --schema relations.cue
  suql compile report.suql --schema relations.yaml --query main --query admins
  suql compile report.suql --schema relations.cue --dialect postgres -o report.sql`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "relationship schema file (.cue, .yaml, .json)")
	cmd.Flags().StringArrayVar(&opts.Queries, "query", nil, "query name to compile (repeatable)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (mysql|sqlite|postgres)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, scriptPath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	in, err := LoadInput(scriptPath, opts.Schema, opts.Dialect, opts.Logger(f.DiagWriter()))
	if err != nil {
		return compileFailed(f, []error{err})
	}

	f.Logf("Loaded %s with %d relationship(s), dialect %s",
		scriptPath, len(in.Schema.Relations), in.Session.Dialect())

	out, err := in.Session.SQLFor(opts.Queries...)
	if err != nil {
		return compileFailed(f, flattenErrors(err))
	}

	if opts.Output == "" {
		return f.SQL(out)
	}

	if err := os.WriteFile(opts.Output, []byte(formatSQL(out)), 0644); err != nil {
		return compileFailed(f, []error{
			&LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)},
		})
	}
	if f.JSON() {
		return f.Success(out)
	}
	fmt.Fprintf(f.Writer, "✓ Wrote %d quer%s to %s\n", len(out), plural(len(out), "y", "ies"), opts.Output)
	return nil
}

// flattenErrors splits an errors.Join result into its parts.
func flattenErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// compileFailed reports errs and returns a command error (exit 2).
func compileFailed(f *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = toCLIError(err)
	}
	if err := f.Errors("Compilation failed", cliErrors); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}
