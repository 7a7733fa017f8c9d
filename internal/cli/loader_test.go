package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/testutil"
)

func TestLoadInput(t *testing.T) {
	in, err := LoadInput("testdata/admins.suql", "testdata/users.cue", "", testutil.DiscardLogger())
	require.NoError(t, err)

	assert.Equal(t, "mysql", in.Session.Dialect())
	assert.Len(t, in.Schema.Relations, 2)
	assert.Len(t, in.Session.Relationships(), 2)
	assert.Equal(t, []string{"admins", "main"}, in.Session.Catalog().Names())
}

func TestLoadInput_DialectPrecedence(t *testing.T) {
	testCases := []struct {
		name    string
		schema  string
		dialect string
		want    string
	}{
		{name: "schema dialect", schema: "testdata/users.yaml", want: "sqlite"},
		{name: "flag overrides schema", schema: "testdata/users.yaml", dialect: "postgres", want: "postgres"},
		{name: "default", want: "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := LoadInput("testdata/syntax.suql", tc.schema, tc.dialect, testutil.DiscardLogger())
			require.NotNil(t, in)
			require.Error(t, err, "syntax.suql does not parse")
			assert.Equal(t, tc.want, in.Session.Dialect())
		})
	}
}

func TestLoadInput_BuilderErrorKeepsSession(t *testing.T) {
	in, err := LoadInput("testdata/unresolved.suql", "testdata/users.cue", "", testutil.DiscardLogger())
	require.Error(t, err)
	require.NotNil(t, in)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeUnresolvedJoin, loadErr.Code)
	assert.Equal(t, []string{"main"}, in.Session.Catalog().Names())
}

func TestLoadError_Error(t *testing.T) {
	assert.Equal(t, "E005: script not found: x", (&LoadError{Code: ErrCodeNotFound, Message: "script not found: x"}).Error())
	assert.Equal(t, "2:7: E101: unexpected \"x\"", (&LoadError{Code: ErrCodeSyntax, Message: `unexpected "x"`, Line: 2, Column: 7}).Error())
}

func TestMapErrorCode(t *testing.T) {
	testCases := []struct {
		code ir.ErrorCode
		want string
	}{
		{ir.ErrCodeConfiguration, ErrCodeConfiguration},
		{ir.ErrCodeUnresolvedJoin, ErrCodeUnresolvedJoin},
		{ir.ErrCodeUnknownQuery, ErrCodeUnknownQuery},
		{ir.ErrCodeComposition, ErrCodeComposition},
		{ir.ErrorCode("OTHER"), ErrCodeGeneric},
	}

	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorCode(tc.code))
		})
	}
}

func TestToCLIError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "load error", err: &LoadError{Code: ErrCodeNotFound, Message: "x"}, wantCode: ErrCodeNotFound},
		{name: "wrapped session error", err: fmt.Errorf("sql: %w", ir.NewUnknownQueryError("main", "sub")), wantCode: ErrCodeUnknownQuery},
		{name: "plain error", err: errors.New("boom"), wantCode: ErrCodeGeneric},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantCode, toCLIError(tc.err).Code)
		})
	}
}
