package queryir

import (
	"fmt"

	"github.com/roach88/suql/internal/ir"
)

// Catalog is the read-only view of a query store that validation and
// composition need.
type Catalog interface {
	Names() []string
	Lookup(name string) (*ir.Query, bool)
}

// ValidationResult contains the findings of a static store check.
type ValidationResult struct {
	// IsClean is true when no warnings were found.
	IsClean bool

	// Warnings lists findings in store order.
	Warnings []string
}

// Validate checks every query in cat for problems the composer would either
// reject or render in a surprising way:
//  1. select without a from table
//  2. select without visible fields (renders "select *")
//  3. union with fewer than two members
//  4. union member or @reference naming a query absent from the store
//
// Cycles are left to compiler.AnalyzeCycles. Validate is a pure function.
func Validate(cat Catalog) ValidationResult {
	v := &validator{cat: cat, warnings: []string{}}
	for _, name := range cat.Names() {
		q, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		v.validateQuery(q)
	}
	return ValidationResult{
		IsClean:  len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

type validator struct {
	cat      Catalog
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q *ir.Query) {
	switch q.Kind {
	case ir.KindSelect:
		v.validateSelect(q)
	case ir.KindUnion:
		v.validateUnion(q)
	default:
		v.addWarning("query %s: unknown kind %d", q.Name, q.Kind)
	}
}

func (v *validator) validateSelect(q *ir.Query) {
	if q.From == "" {
		v.addWarning("query %s: no from table", q.Name)
	}
	if len(q.VisibleFields()) == 0 {
		v.addWarning("query %s: no visible fields, renders select *", q.Name)
	}
	for _, pred := range append(append([]string(nil), q.Where...), q.Having...) {
		for _, ref := range Qualify(pred, nil).Refs() {
			v.checkRef(q.Name, ref)
		}
	}
}

func (v *validator) validateUnion(q *ir.Query) {
	if len(q.Union) < 2 {
		v.addWarning("query %s: union has %d member(s)", q.Name, len(q.Union))
	}
	for _, member := range q.Union {
		v.checkRef(q.Name, member)
	}
}

func (v *validator) checkRef(owner, ref string) {
	if _, ok := v.cat.Lookup(ref); !ok {
		v.addWarning("query %s: references unknown query %s", owner, ref)
	}
}
