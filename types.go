package suql

import (
	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/relation"
)

// TableRef names a table and the optional alias a relationship predicate
// uses for it.
type TableRef = relation.TableRef

// Relationship is a declared relationship, its predicate rewritten to table
// names.
type Relationship = relation.Relationship

// T builds a TableRef. The alias is optional.
func T(table string, alias ...string) TableRef {
	ref := TableRef{Table: table}
	if len(alias) > 0 {
		ref.Alias = alias[0]
	}
	return ref
}

// CaseBranch is one branch of a case modifier. When is a condition in which
// FieldMarker stands for the field; CaseDefault makes the else branch. Then
// is bound as an escaped literal.
type CaseBranch = ir.CaseBranch

// Case modifier markers.
const (
	CaseDefault = ir.CaseDefault
	FieldMarker = ir.FieldMarker
)

// Direction is a sort direction.
type Direction = ir.Direction

// Sort directions.
const (
	Asc  = ir.Asc
	Desc = ir.Desc
)
