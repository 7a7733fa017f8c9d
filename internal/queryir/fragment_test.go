package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragment_MergesText(t *testing.T) {
	var f Fragment
	f.Text("select ")
	f.Text("* from ")
	f.Ref("sub", "sub")
	f.Text("")
	f.Text(" where x")

	assert.Equal(t, Fragment{Text("select * from "), Ref{Name: "sub", Alias: "sub"}, Text(" where x")}, f)
	assert.Equal(t, []string{"sub"}, f.Refs())
	assert.Equal(t, "select * from @sub sub where x", f.String())
}

func TestJoinFragments(t *testing.T) {
	var a, b Fragment
	a.Ref("first", "")
	b.Ref("second", "")

	got := JoinFragments([]Fragment{a, b}, " union ")
	assert.Equal(t, Fragment{Ref{Name: "first"}, Text(" union "), Ref{Name: "second"}}, got)
	assert.Equal(t, []string{"first", "second"}, got.Refs())
}

func TestQualify(t *testing.T) {
	names := map[string]string{
		"uid":   "users.id",
		"gname": "groups.name",
	}

	testCases := []struct {
		name string
		pred string
		want string
		refs []string
	}{
		{name: "alias replaced", pred: "uid % 2 = 0", want: "users.id % 2 = 0"},
		{name: "qualified names untouched", pred: "t.uid = uid.x", want: "t.uid = uid.x"},
		{name: "function call untouched", pred: "gname (1) = gname", want: "gname (1) = groups.name"},
		{name: "string untouched", pred: "gname = 'gname'", want: "groups.name = 'gname'"},
		{name: "unknown kept", pred: "other = 1", want: "other = 1"},
		{name: "reference", pred: "uid not in @sub", want: "users.id not in @sub", refs: []string{"sub"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := Qualify(tc.pred, names)
			assert.Equal(t, tc.want, f.String())
			assert.Equal(t, tc.refs, f.Refs())
		})
	}
}

func TestRenameQualifiers(t *testing.T) {
	renames := map[string]string{"u": "users", "ug": "user_group"}

	testCases := []struct {
		pred string
		want string
	}{
		{"u.id = ug.user_id", "users.id = user_group.user_id"},
		{"u = ug.u", "u = user_group.u"},
		{"x.u.id = 1", "x.u.id = 1"},
		{"'u.id' = u.id", "'u.id' = users.id"},
	}

	for _, tc := range testCases {
		t.Run(tc.pred, func(t *testing.T) {
			assert.Equal(t, tc.want, RenameQualifiers(tc.pred, renames))
		})
	}
}
