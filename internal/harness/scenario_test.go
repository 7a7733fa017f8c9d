package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/select_fields.yaml")
	require.NoError(t, err)

	assert.Equal(t, "select_fields", s.Name)
	assert.Equal(t, filepath.Join("testdata", "schemas", "users.cue"), s.Schema)
	assert.Contains(t, s.Script, "SELECT FROM users")
	assert.Len(t, s.Expect, 1)
}

func TestLoadScenario_InlineRelations(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/union_all_queries.yaml")
	require.NoError(t, err)

	require.Len(t, s.Relations, 1)
	assert.Equal(t, "users", s.Relations[0].Left.Table)
	assert.Equal(t, "users.id = user_group.user_id", s.Relations[0].On)
	assert.Equal(t, []string{"all"}, s.Queries)
}

func TestLoadScenario_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown field",
			body:    "name: x\ndescription: d\nscript: s\nexpects: {main: x}\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			body:    "description: d\nscript: s\nexpect: {main: x}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: x\nscript: s\nexpect: {main: x}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing script",
			body:    "name: x\ndescription: d\nexpect: {main: x}\n",
			wantErr: "script is required",
		},
		{
			name:    "no expectation",
			body:    "name: x\ndescription: d\nscript: s\n",
			wantErr: "expect or expect_error is required",
		},
		{
			name:    "both expectations",
			body:    "name: x\ndescription: d\nscript: s\nexpect: {main: x}\nexpect_error: SYNTAX\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown error code",
			body:    "name: x\ndescription: d\nscript: s\nexpect_error: BOOM\n",
			wantErr: "unknown error code",
		},
		{
			name:    "missing schema file",
			body:    "name: x\ndescription: d\nscript: s\nschema: nope.cue\nexpect: {main: x}\n",
			wantErr: "schema file not found",
		},
		{
			name:    "relation without table",
			body:    "name: x\ndescription: d\nscript: s\nrelations: [{left: {table: a}, right: {}, on: x}]\nexpect: {main: x}\n",
			wantErr: "relations[0]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.IsIncreasing(t, names)
}
