package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminsSQL = "select users.id, users.name from users where users.id in (" +
	"select groups.name as gname from users " +
	"inner join user_group on users.id = user_group.user_id " +
	"inner join groups on user_group.group_id = groups.id " +
	"where groups.name = 'admin')"

func executeCompile(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileText(t *testing.T) {
	out, err := executeCompile(t, "text", "testdata/admins.suql", "--schema", "testdata/users.cue")
	require.NoError(t, err)
	assert.Equal(t, adminsSQL+";\n", out)
}

func TestCompileYAMLSchema(t *testing.T) {
	out, err := executeCompile(t, "text", "testdata/groups.suql", "--schema", "testdata/users.yaml")
	require.NoError(t, err)
	assert.Equal(t, "select groups.name as gname, count(groups.name) as count from users "+
		"inner join user_group on users.id = user_group.user_id "+
		"inner join groups on user_group.group_id = groups.id "+
		"group by groups.name;\n", out)
}

func TestCompileJSON(t *testing.T) {
	out, err := executeCompile(t, "json", "testdata/admins.suql", "--schema", "testdata/users.cue")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"main": adminsSQL}, resp.Data)
}

func TestCompileQueries(t *testing.T) {
	testCases := []struct {
		name      string
		args      []string
		wantNames []string
	}{
		{name: "default main", args: nil, wantNames: []string{"main"}},
		{name: "named", args: []string{"--query", "admins"}, wantNames: []string{"admins"}},
		{name: "repeated", args: []string{"--query", "admins", "--query", "main"}, wantNames: []string{"admins", "main"}},
		{name: "all", args: []string{"--query", "all"}, wantNames: []string{"admins", "main"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"testdata/admins.suql", "--schema", "testdata/users.cue"}, tc.args...)
			out, err := executeCompile(t, "json", args...)
			require.NoError(t, err)

			var resp struct {
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))

			names := make([]string, 0, len(resp.Data))
			for name := range resp.Data {
				names = append(names, name)
			}
			assert.ElementsMatch(t, tc.wantNames, names)
		})
	}
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "admins.sql")

	out, err := executeCompile(t, "text", "testdata/admins.suql",
		"--schema", "testdata/users.cue", "--query", "all", "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 queries to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- admins\n")
	assert.Contains(t, string(data), "-- main\n"+adminsSQL+";\n")
}

func TestCompileErrors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{name: "missing script", args: []string{"testdata/nope.suql"}, wantCode: ErrCodeNotFound},
		{name: "missing schema", args: []string{"testdata/admins.suql", "--schema", "testdata/nope.cue"}, wantCode: ErrCodeNotFound},
		{name: "invalid schema", args: []string{"testdata/admins.suql", "--schema", "testdata/bad.cue"}, wantCode: ErrCodeSchemaInvalid},
		{name: "unknown dialect", args: []string{"testdata/groups.suql", "--schema", "testdata/users.cue", "--dialect", "oracle"}, wantCode: ErrCodeInvalidDialect},
		{name: "syntax error", args: []string{"testdata/syntax.suql"}, wantCode: ErrCodeSyntax},
		{name: "unresolved join", args: []string{"testdata/unresolved.suql", "--schema", "testdata/users.cue"}, wantCode: ErrCodeUnresolvedJoin},
		{name: "unknown query", args: []string{"testdata/groups.suql", "--schema", "testdata/users.cue", "--query", "nope"}, wantCode: ErrCodeUnknownQuery},
		{name: "cycle", args: []string{"testdata/cycle.suql", "--query", "a"}, wantCode: ErrCodeComposition},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := executeCompile(t, "json", tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestCompileErrorsText(t *testing.T) {
	out, err := executeCompile(t, "text", "testdata/syntax.suql")
	require.Error(t, err)

	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, ErrCodeSyntax+": 1:")
}

func TestFormatSQL(t *testing.T) {
	testCases := []struct {
		name string
		in   map[string]string
		want string
	}{
		{name: "single", in: map[string]string{"main": "select 1"}, want: "select 1;\n"},
		{
			name: "sorted with headers",
			in:   map[string]string{"main": "select 1", "b": "select 2"},
			want: "-- b\nselect 2;\n\n-- main\nselect 1;\n",
		},
		{name: "empty", in: map[string]string{}, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatSQL(tc.in))
		})
	}
}
