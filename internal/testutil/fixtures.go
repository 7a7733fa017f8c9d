// Package testutil provides shared test fixtures: the users / user_group /
// groups relationship graph used throughout the tests and deterministic
// session identifiers.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/suql"
)

// Relation is one relationship declaration of a fixture graph.
type Relation struct {
	Left  suql.TableRef
	Right suql.TableRef
	On    string
}

// UsersGraph is the users <-> user_group <-> groups graph, declared with
// aliases.
var UsersGraph = []Relation{
	{Left: suql.T("users", "u"), Right: suql.T("user_group", "ug"), On: "u.id = ug.user_id"},
	{Left: suql.T("user_group", "ug"), Right: suql.T("groups", "g"), On: "ug.group_id = g.id"},
}

// Declare declares rels on s.
func Declare(s *suql.Session, rels []Relation) error {
	for _, r := range rels {
		if err := s.Rel(r.Left, r.Right, r.On); err != nil {
			return err
		}
	}
	return nil
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSession creates a mysql session with a fixed id, a silent logger and
// UsersGraph declared. Later options override the defaults.
func NewSession(t testing.TB, opts ...suql.Option) *suql.Session {
	t.Helper()

	defaults := []suql.Option{
		suql.WithDialect("mysql"),
		suql.WithLogger(DiscardLogger()),
		suql.WithIDGenerator(NewFixedIDGenerator()),
	}
	s, err := suql.New(append(defaults, opts...)...)
	require.NoError(t, err)
	require.NoError(t, Declare(s, UsersGraph))
	return s
}
