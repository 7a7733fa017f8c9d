package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/suql/internal/harness"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: users_ids
description: "Select ids"
relations:
  - left: {table: users, alias: u}
    right: {table: user_group, alias: ug}
    on: u.id = ug.user_id
script: "SELECT FROM users id;"
expect:
  main: "select users.id from users"
`

const failingScenario = `name: users_names
description: "Wrong expectation"
script: "SELECT FROM users name;"
expect:
  main: "select name from users"
`

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// scenarioDir writes scenarios into <tmp>/scenarios and returns that path.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := executeTest(t, "text", scenarioDir(t, nil))
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", scenarioDir(t, nil))
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := executeTest(t, "json", harnessScenarios)
	require.NoError(t, err, out)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Positive(t, response.Data.Total)
	assert.Equal(t, response.Data.Total, response.Data.Passed)
}

func TestTestCommandFailure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users_ids.yaml":   passingScenario,
		"users_names.yaml": failingScenario,
	})

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ users_ids [mysql] 1 query")
	assert.Contains(t, out, "✗ users_names [mysql] 1 query")
	assert.Contains(t, out, "    query \"main\":\n      want: select name from users\n      got:  select users.name from users\n")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users_ids.yaml":   passingScenario,
		"users_names.yaml": failingScenario,
	})

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeTestFailed, response.Error.Code)

	require.Len(t, response.Data.Scenarios, 2)
	byName := map[string]ScenarioResult{}
	for _, sr := range response.Data.Scenarios {
		byName[sr.Name] = sr
	}

	passed := byName["users_ids"]
	assert.True(t, passed.Pass)
	assert.Equal(t, []string{"main"}, passed.Queries)
	assert.Equal(t, GoldenAbsent, passed.Golden)

	failed := byName["users_names"]
	assert.False(t, failed.Pass)
	assert.Equal(t, "mysql", failed.Dialect)
	assert.Equal(t, []harness.Mismatch{{
		Query: "main",
		Want:  "select name from users",
		Got:   "select users.name from users",
	}}, failed.Mismatches)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"users_ids.yaml":   passingScenario,
		"users_names.yaml": failingScenario,
	})

	out, err := executeTest(t, "text", dir, "--filter", "*_ids")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"users_ids.yaml": passingScenario})

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden := filepath.Join(filepath.Dir(dir), "golden", "users_ids.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"users_ids","sql":{"main":"select users.id from users"}}`+"\n", string(data))

	// A second run compares against the written file
	out, err = executeTest(t, "json", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"golden": "match"`)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden snapshot mismatch")
}

func TestTestHelpText(t *testing.T) {
	out, err := executeTest(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "scenarios")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenDir(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenarios", "/path/to/golden"},
		{"/path/to/scenarios/", "/path/to/golden"},
		{"testdata/scenarios", "testdata/golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenDir(tc.input))
	}
}
