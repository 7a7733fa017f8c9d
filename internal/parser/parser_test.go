package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/suql/internal/ir"
)

func TestParse_SimpleSelect(t *testing.T) {
	script, err := Parse(`
		SELECT FROM users
		  id,
		  name
		;
	`)
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	main := script.Main()
	require.NotNil(t, main)
	assert.Equal(t, ir.DefaultQuery, main.Name)
	require.NotNil(t, main.Select)
	assert.Equal(t, "users", main.Select.From.Table)
	assert.Equal(t, []FieldToken{{Expr: "id"}, {Expr: "name"}}, main.Select.From.Fields)
	assert.Empty(t, main.Select.Joins)
}

func TestParse_Fields(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []FieldToken
	}{
		{
			name: "star",
			src:  "SELECT FROM users *;",
			want: []FieldToken{{Expr: "*"}},
		},
		{
			name: "aliases",
			src:  "SELECT FROM users id@uid, name@uname;",
			want: []FieldToken{{Expr: "id", Alias: "uid"}, {Expr: "name", Alias: "uname"}},
		},
		{
			name: "modifier chain",
			src:  "SELECT FROM groups name.group.count.asc@count;",
			want: []FieldToken{{
				Expr:  "name",
				Alias: "count",
				Modifiers: []ir.ModifierCall{
					ir.NewModifierCall("group"),
					ir.NewModifierCall("count"),
					ir.NewModifierCall("asc"),
				},
			}},
		},
		{
			name: "modifier parameters",
			src:  "SELECT FROM users name.group('admin').left(name, 3)@x;",
			want: []FieldToken{{
				Expr:  "name",
				Alias: "x",
				Modifiers: []ir.ModifierCall{
					ir.NewModifierCall("group", "'admin'"),
					ir.NewModifierCall("left", "name", "3"),
				},
			}},
		},
		{
			name: "no fields",
			src:  "SELECT FROM users;",
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			script, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, script.Main().Select.From.Fields)
		})
	}
}

func TestParse_JoinsAndClauses(t *testing.T) {
	script, err := Parse(`
		select distinct from users
		inner join user_group
		LEFT JOIN groups
		  id@gid,
		  name@gname
		WHERE gname = 'admin' and (gid > 1 or gid < 0)
		LIMIT 5, 10;
	`)
	require.NoError(t, err)

	sel := script.Main().Select
	assert.Equal(t, "distinct", sel.Modifier)
	assert.Equal(t, "users", sel.From.Table)
	require.Len(t, sel.Joins, 2)
	assert.Equal(t, Source{Join: ir.JoinInner, Table: "user_group"}, sel.Joins[0])
	assert.Equal(t, ir.JoinLeft, sel.Joins[1].Join)
	assert.Equal(t, "groups", sel.Joins[1].Table)
	assert.Len(t, sel.Joins[1].Fields, 2)
	assert.Equal(t, "gname = 'admin' and (gid > 1 or gid < 0)", sel.Where)
	assert.Equal(t, 5, sel.Offset)
	assert.Equal(t, 10, sel.Limit)
}

func TestParse_OffsetKeyword(t *testing.T) {
	script, err := Parse("SELECT FROM users * OFFSET 3 LIMIT 2")
	require.NoError(t, err)

	sel := script.Main().Select
	assert.Equal(t, 3, sel.Offset)
	assert.Equal(t, 2, sel.Limit)
}

func TestParse_WhereKeepsStrings(t *testing.T) {
	script, err := Parse(`SELECT FROM users name WHERE name = 'a; limit 3' LIMIT 1;`)
	require.NoError(t, err)

	sel := script.Main().Select
	assert.Equal(t, "name = 'a; limit 3'", sel.Where)
	assert.Equal(t, 1, sel.Limit)
}

func TestParse_NestedAndUnion(t *testing.T) {
	script, err := Parse(`
		@firstRegistration = SELECT FROM users
		                       registration.min@reg_interval
		                     ;
		@lastRegistration = SELECT FROM users
		                      registration.max@reg_interval
		                    ;
		@main = @firstRegistration union @lastRegistration;
	`)
	require.NoError(t, err)
	require.Len(t, script.Statements, 3)

	first, ok := script.Lookup("firstRegistration")
	require.True(t, ok)
	assert.Equal(t, "users", first.Select.From.Table)

	main := script.Main()
	require.NotNil(t, main)
	assert.Nil(t, main.Select)
	assert.Equal(t, []string{"firstRegistration", "lastRegistration"}, main.Union)
}

func TestParse_NestedFrom(t *testing.T) {
	script, err := Parse(`
		@allGroupCount = SELECT FROM users
		                 INNER JOIN user_group
		                 INNER JOIN groups
		                   name@gname,
		                   name.group.count@count
		                 ;
		SELECT FROM allGroupCount
		  gname,
		  count
		WHERE gname = 'admin';
	`)
	require.NoError(t, err)

	assert.Equal(t, "allGroupCount", script.Main().Select.From.Table)
	assert.Equal(t, "gname = 'admin'", script.Main().Select.Where)

	nested, ok := script.Lookup("allGroupCount")
	require.True(t, ok)
	require.Len(t, nested.Select.Joins, 2)
	assert.Equal(t, "count", nested.Select.Joins[1].Fields[1].Alias)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		msg  string
		pos  Position
	}{
		{
			name: "empty",
			src:  "  ;  ",
			msg:  "no statements",
			pos:  Position{Line: 1, Column: 1},
		},
		{
			name: "missing from",
			src:  "SELECT users;",
			msg:  `expected FROM, found "users"`,
			pos:  Position{Line: 1, Column: 8},
		},
		{
			name: "unknown statement",
			src:  "\n  UPDATE users;",
			msg:  `expected SELECT or @query, found "UPDATE"`,
			pos:  Position{Line: 2, Column: 3},
		},
		{
			name: "duplicate main",
			src:  "SELECT FROM a; SELECT FROM b;",
			msg:  `query "main" declared twice`,
			pos:  Position{Line: 1, Column: 16},
		},
		{
			name: "single union member",
			src:  "@main = @a;",
			msg:  "expected UNION, found end of statement",
			pos:  Position{Line: 1, Column: 11},
		},
		{
			name: "bad limit",
			src:  "SELECT FROM users LIMIT x;",
			msg:  `expected number, found "x"`,
			pos:  Position{Line: 1, Column: 25},
		},
		{
			name: "trailing garbage",
			src:  "SELECT FROM users id name;",
			msg:  `unexpected "name"`,
			pos:  Position{Line: 1, Column: 22},
		},
		{
			name: "unterminated string",
			src:  "select from users where 'abc",
			msg:  "unterminated string literal",
			pos:  Position{Line: 1, Column: 25},
		},
		{
			name: "unterminated string swallows the terminator",
			src:  "SELECT FROM users\nWHERE name = \"bob;\nSELECT FROM groups;",
			msg:  "unterminated string literal",
			pos:  Position{Line: 2, Column: 14},
		},
		{
			name: "unterminated parameters",
			src:  "SELECT FROM users id.left(3;",
			msg:  "unterminated modifier parameters",
			pos:  Position{Line: 1, Column: 26},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)

			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, tc.msg, syn.Message)
			assert.Equal(t, tc.pos, syn.Pos)
		})
	}
}

func TestParse_QueryReferenceSource(t *testing.T) {
	script, err := Parse("@sub = SELECT FROM groups id; SELECT FROM @sub id;")
	require.NoError(t, err)
	assert.Equal(t, "@sub", script.Main().Select.From.Table)
}
