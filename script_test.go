package suql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/suql"
	"github.com/roach88/suql/internal/parser"
	"github.com/roach88/suql/internal/testutil"
)

func TestParse_Scripts(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "select",
			src: `
				SELECT FROM users
				  id,
				  name
				;`,
			want: "select users.id, users.name from users",
		},
		{
			name: "star",
			src:  "SELECT FROM users *;",
			want: "select users.* from users",
		},
		{
			name: "aliases",
			src:  "SELECT FROM users id@uid, name@uname;",
			want: "select users.id as uid, users.name as uname from users",
		},
		{
			name: "where",
			src: `
				SELECT FROM users
				  id@uid,
				  name@uname
				WHERE uid % 2 = 0;`,
			want: "select users.id as uid, users.name as uname from users where users.id % 2 = 0",
		},
		{
			name: "where with nested query",
			src: `
				@users_belong_to_any_group = SELECT DISTINCT FROM user_group
				                               user_id
				                             ;
				SELECT FROM users
				  id@uid,
				  name
				WHERE uid not in @users_belong_to_any_group;`,
			want: "select users.id as uid, users.name from users " +
				"where users.id not in (select distinct user_group.user_id from user_group)",
		},
		{
			name: "limit",
			src:  "SELECT FROM users * LIMIT 0, 2;",
			want: "select users.* from users limit 2",
		},
		{
			name: "distinct",
			src:  "SELECT DISTINCT FROM users name;",
			want: "select distinct users.name from users",
		},
		{
			name: "join",
			src: `
				SELECT FROM users
				INNER JOIN user_group
				INNER JOIN groups
				  id@gid,
				  name@gname
				;`,
			want: "select groups.id as gid, groups.name as gname from users " +
				"inner join user_group on users.id = user_group.user_id " +
				"inner join groups on user_group.group_id = groups.id",
		},
		{
			name: "group",
			src: `
				SELECT FROM users
				INNER JOIN user_group
				INNER JOIN groups
				  name@gname,
				  name.group.count@count
				WHERE gname = 'admin';`,
			want: "select groups.name as gname, count(groups.name) as count from users " +
				"inner join user_group on users.id = user_group.user_id " +
				"inner join groups on user_group.group_id = groups.id " +
				"where groups.name = 'admin' group by groups.name",
		},
		{
			name: "nested from",
			src: `
				@allGroupCount = SELECT FROM users
				                 INNER JOIN user_group
				                 INNER JOIN groups
				                   name@gname,
				                   name.group.count@count
				                 ;
				SELECT FROM allGroupCount
				  gname,
				  count
				WHERE gname = 'admin';`,
			want: "select allGroupCount.gname, allGroupCount.count from (" +
				"select groups.name as gname, count(groups.name) as count from users " +
				"inner join user_group on users.id = user_group.user_id " +
				"inner join groups on user_group.group_id = groups.id " +
				"group by groups.name" +
				") allGroupCount where gname = 'admin'",
		},
		{
			name: "sorting",
			src: `
				SELECT FROM users
				INNER JOIN user_group
				INNER JOIN groups
				  name@gname,
				  name.group.count.asc@count
				;`,
			want: "select groups.name as gname, count(groups.name) as count from users " +
				"inner join user_group on users.id = user_group.user_id " +
				"inner join groups on user_group.group_id = groups.id " +
				"group by groups.name order by count asc",
		},
		{
			name: "union",
			src: `
				@firstRegistration = SELECT FROM users
				                       registration.min@reg_interval
				                     ;
				@lastRegistration = SELECT FROM users
				                      registration.max@reg_interval
				                    ;
				@main = @firstRegistration union @lastRegistration;`,
			want: "(select min(users.registration) as reg_interval from users) " +
				"union " +
				"(select max(users.registration) as reg_interval from users)",
		},
		{
			name: "left join and group parameter",
			src: `
				SELECT FROM groups
				  name.group('admin')@gname
				LEFT JOIN user_group
				  user_id.count@members
				OFFSET 5;`,
			want: "select groups.name as gname, count(user_group.user_id) as members from groups " +
				"left join user_group on user_group.group_id = groups.id " +
				"group by groups.name having gname = 'admin' limit 5, 18446744073709551615",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := testutil.NewSession(t)
			require.NoError(t, s.Parse(tc.src))
			requireSQL(t, s, tc.want)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	s := testutil.NewSession(t)

	err := s.Parse("SELECT users;")
	var syn *parser.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 1, syn.Pos.Line)

	assert.NoError(t, s.Err(), "syntax errors do not poison the session")
}

func TestParse_BuilderErrors(t *testing.T) {
	s := testutil.NewSession(t)

	err := s.Parse("SELECT FROM users INNER JOIN groups name;")
	assert.True(t, suql.IsUnresolvedJoin(err))

	_, err = s.SQL()
	assert.True(t, suql.IsUnresolvedJoin(err))
}

func TestParse_UnknownReference(t *testing.T) {
	s := testutil.NewSession(t)

	err := s.Parse("SELECT FROM @undeclared id;")
	assert.True(t, suql.IsUnknownQuery(err))
}

func TestParse_QueryReferenceSource(t *testing.T) {
	s := testutil.NewSession(t)

	require.NoError(t, s.Parse(`
		@admins = SELECT FROM groups id WHERE name = 'admin';
		SELECT FROM @admins id;
	`))
	requireSQL(t, s, "select admins.id from (select groups.id from groups where name = 'admin') admins")
}
