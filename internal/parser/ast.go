// Package parser reads SuQL text into statements.
//
// A script is a sequence of statements separated by ";". A statement either
// declares a named query or is the main query:
//
//	@allGroupCount = SELECT FROM users
//	                 INNER JOIN user_group
//	                 INNER JOIN groups
//	                   name@gname,
//	                   name.group.count@count
//	                 ;
//	SELECT FROM allGroupCount
//	  gname,
//	  count
//	WHERE gname = 'admin';
//
// The parser only builds syntax. Joins without an explicit predicate are
// resolved later against the relationship graph.
package parser

import (
	"fmt"

	"github.com/roach88/suql/internal/ir"
)

// Script is a parsed SuQL source.
type Script struct {
	Statements []*Statement
}

// Main returns the main statement: the unnamed one, or the one explicitly
// named "main".
func (s *Script) Main() *Statement {
	for _, st := range s.Statements {
		if st.Name == ir.DefaultQuery {
			return st
		}
	}
	return nil
}

// Lookup returns the statement declaring name.
func (s *Script) Lookup(name string) (*Statement, bool) {
	for _, st := range s.Statements {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// Statement is one query declaration. Exactly one of Select and Union is set.
type Statement struct {
	Name   string
	Select *Select
	Union  []string
	Pos    Position
}

// Select is a select statement.
type Select struct {
	Modifier string // "distinct" or ""
	From     Source
	Joins    []Source
	Where    string
	Offset   int
	Limit    int
}

// Source is a table in the from/join chain with the fields that follow it.
type Source struct {
	Join   ir.JoinType // empty for the from source
	Table  string      // keeps the leading "@" of a query reference
	Fields []FieldToken
}

// FieldToken is one field reference: expr(.modifier)*(@alias)?
type FieldToken struct {
	Expr      string
	Alias     string
	Modifiers []ir.ModifierCall
}

// Position is a 1-based location in the source.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports malformed SuQL text.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}
