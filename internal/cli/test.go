package cli

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/suql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden snapshots
	Filter string // glob over scenario file names
}

// Golden snapshot states reported per scenario.
const (
	GoldenAbsent   = "absent"
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name       string             `json:"name"`
	Dialect    string             `json:"dialect,omitempty"`
	Pass       bool               `json:"pass"`
	Queries    []string           `json:"queries,omitempty"` // names that produced SQL
	Mismatches []harness.Mismatch `json:"mismatches,omitempty"`
	Golden     string             `json:"golden,omitempty"`
	Error      string             `json:"error,omitempty"` // load or run failure
}

// TestResult is the outcome of a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run SQL scenarios",
		Long: `Run end-to-end SQL scenarios.

Each YAML scenario declares relationships, a SuQL script and the SQL expected
per query name (or the error code expected instead). A scenario passes when
every expected query composes to exactly the expected SQL and, when
"<scenarios-dir>/../golden/<name>.golden" exists, its snapshot matches.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  suql test ./testdata/scenarios
  suql test ./testdata/scenarios --filter "join_*"
  suql test ./testdata/scenarios --update
  suql test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "finding scenarios", err)
	}

	r := &scenarioRunner{
		opts:      opts,
		goldenDir: goldenDir(scenariosDir),
		f:         newFormatter(opts.RootOptions, cmd),
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	for _, file := range files {
		sr := r.run(file)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
		if !r.f.JSON() {
			printScenario(r.f, sr)
		}
	}

	return reportTests(r.f, result)
}

// findScenarioFiles walks dir for .yaml and .yml files, keeping those whose
// base name without extension matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// scenarioRunner runs scenarios of one directory against its goldens.
type scenarioRunner struct {
	opts      *TestOptions
	goldenDir string
	f         *OutputFormatter
}

func (r *scenarioRunner) run(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{Name: filepath.Base(file), Error: fmt.Sprintf("load: %v", err)}
	}

	result, err := harness.RunWithLogger(scenario, r.opts.Logger(r.f.DiagWriter()))
	if err != nil {
		return ScenarioResult{Name: scenario.Name, Error: fmt.Sprintf("run: %v", err)}
	}

	sr := ScenarioResult{
		Name:       scenario.Name,
		Dialect:    result.Dialect,
		Pass:       result.Pass,
		Queries:    sortedKeys(result.SQL),
		Mismatches: result.Mismatches,
	}

	snapshot, err := harness.Snapshot(scenario, result)
	if err != nil {
		sr.Pass = false
		sr.Error = fmt.Sprintf("snapshot: %v", err)
		return sr
	}

	path := goldenFilePath(r.goldenDir, scenario)
	if r.opts.Update {
		if err := writeGolden(path, snapshot); err != nil {
			sr.Pass = false
			sr.Error = err.Error()
			return sr
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	want, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		sr.Golden = GoldenAbsent
	case err != nil:
		sr.Pass = false
		sr.Error = fmt.Sprintf("reading golden file: %v", err)
	case bytes.Equal(want, snapshot):
		sr.Golden = GoldenMatch
	default:
		sr.Golden = GoldenMismatch
		sr.Pass = false
	}
	return sr
}

// goldenDir returns the "golden" directory next to a scenarios directory.
func goldenDir(scenariosDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
}

// goldenFilePath returns the golden snapshot path of a scenario.
func goldenFilePath(dir string, scenario *harness.Scenario) string {
	return filepath.Join(dir, scenario.Name+".golden")
}

func writeGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating golden directory: %w", err)
	}
	if err := os.WriteFile(path, snapshot, 0644); err != nil {
		return fmt.Errorf("writing golden file: %w", err)
	}
	return nil
}

// printScenario writes one scenario line, followed by the per-query SQL
// differences of a failure.
func printScenario(f *OutputFormatter, sr ScenarioResult) {
	w := f.Writer

	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s", mark, sr.Name)
	if sr.Dialect != "" {
		fmt.Fprintf(w, " [%s]", sr.Dialect)
	}
	if n := len(sr.Queries); n > 0 {
		fmt.Fprintf(w, " %d quer%s", n, plural(n, "y", "ies"))
	}
	if sr.Golden == GoldenUpdated {
		fmt.Fprint(w, " (golden updated)")
	}
	fmt.Fprintln(w)

	if sr.Error != "" {
		fmt.Fprintf(w, "    %s\n", sr.Error)
	}
	for _, m := range sr.Mismatches {
		for _, line := range strings.Split(m.String(), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if sr.Golden == GoldenMismatch {
		fmt.Fprintln(w, "    golden snapshot mismatch (run with --update to regenerate)")
	}
}

// reportTests writes the summary and returns ExitFailure when any scenario
// failed.
func reportTests(f *OutputFormatter, result TestResult) error {
	var failErr error
	if result.Failed > 0 {
		failErr = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failErr != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failErr.Error()}
		}
		if err := f.Encode(resp); err != nil {
			return err
		}
		return failErr
	}

	if result.Total == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}
	fmt.Fprintf(f.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failErr == nil {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
	return failErr
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
