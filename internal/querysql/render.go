package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/modifier"
	"github.com/roach88/suql/internal/queryir"
)

// maxLimit is the row count MySQL documents for "offset without limit".
const maxLimit = "18446744073709551615"

// Render renders the query called name without expanding nested queries.
func (c *Composer) Render(cat queryir.Catalog, name string) (queryir.Fragment, error) {
	q, ok := cat.Lookup(name)
	if !ok {
		return nil, ir.NewUnknownQueryError("", name)
	}
	switch q.Kind {
	case ir.KindSelect:
		return c.renderSelect(cat, q.Clone()), nil
	case ir.KindUnion:
		return renderUnion(q), nil
	default:
		return nil, fmt.Errorf("unsupported query kind: %v", q.Kind)
	}
}

// renderSelect renders a select. q must be a private copy: modifiers are
// applied to it in place.
func (c *Composer) renderSelect(cat queryir.Catalog, q *ir.Query) queryir.Fragment {
	c.applyModifiers(q)

	var f queryir.Fragment
	f.Text(selectClause(q))

	if q.From != "" {
		f.Text(" from ")
		appendSource(&f, cat, q.From)
	}

	for _, j := range q.Joins {
		f.Text(" " + string(j.Type) + " join ")
		appendSource(&f, cat, j.Table)
		f.Text(" on " + j.On)
	}

	if len(q.Where) > 0 {
		names := qualifiers(cat, q)
		parts := make([]queryir.Fragment, len(q.Where))
		for i, pred := range q.Where {
			parts[i] = queryir.Qualify(pred, names)
		}
		f.Text(" where ")
		f.Append(queryir.JoinFragments(parts, " and "))
	}

	if len(q.Group) > 0 {
		f.Text(" group by " + strings.Join(q.Group, ", "))
	}

	if len(q.Having) > 0 {
		parts := make([]queryir.Fragment, len(q.Having))
		for i, pred := range q.Having {
			parts[i] = queryir.Qualify(pred, nil)
		}
		f.Text(" having ")
		f.Append(queryir.JoinFragments(parts, " and "))
	}

	if len(q.Order) > 0 {
		items := make([]string, len(q.Order))
		for i, o := range q.Order {
			items[i] = o.Expr + " " + string(o.Direction)
		}
		f.Text(" order by " + strings.Join(items, ", "))
	}

	f.Text(limitClause(q))
	return f
}

// applyModifiers runs the modifier pipeline over every field in select-list
// order and applies the resulting effects to q.
func (c *Composer) applyModifiers(q *ir.Query) {
	for _, field := range q.Fields {
		if !field.HasModifiers() {
			continue
		}
		next, effects := c.pipeline.Run(*field)
		*field = next
		modifier.ApplyEffects(q, effects)
	}
}

func selectClause(q *ir.Query) string {
	var b strings.Builder
	b.WriteString("select ")
	if q.Modifier != "" {
		b.WriteString(q.Modifier + " ")
	}
	visible := q.VisibleFields()
	if len(visible) == 0 {
		b.WriteString("*")
		return b.String()
	}
	for i, f := range visible {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Expr)
		if f.HasAlias() {
			b.WriteString(" as " + f.Alias)
		}
	}
	return b.String()
}

// appendSource writes a from/join source: a nested query placeholder when
// the name is a query in the catalog, the literal table name otherwise.
func appendSource(f *queryir.Fragment, cat queryir.Catalog, name string) {
	if _, nested := cat.Lookup(name); nested {
		f.Ref(name, name)
		return
	}
	f.Text(name)
}

func limitClause(q *ir.Query) string {
	switch {
	case q.Limit > 0 && q.Offset > 0:
		return fmt.Sprintf(" limit %d, %d", q.Offset, q.Limit)
	case q.Limit > 0:
		return fmt.Sprintf(" limit %d", q.Limit)
	case q.Offset > 0:
		return fmt.Sprintf(" limit %d, %s", q.Offset, maxLimit)
	default:
		return ""
	}
}

// qualifiers maps the names a where predicate may use for select-list fields
// to their qualified source expression:
//   - every alias maps to its field's source
//   - a bare column name maps to its source when the field reads a physical
//     table (not a nested query) and the name is unambiguous
//
// Aliases win over bare names.
func qualifiers(cat queryir.Catalog, q *ir.Query) map[string]string {
	names := map[string]string{}
	for _, f := range q.Fields {
		if f.HasAlias() {
			if _, taken := names[f.Alias]; !taken {
				names[f.Alias] = f.Source
			}
		}
	}

	bare := map[string]string{}
	ambiguous := map[string]bool{}
	for _, f := range q.Fields {
		name := f.Name()
		if name == "" {
			continue
		}
		if _, nested := cat.Lookup(f.Table); nested {
			continue
		}
		if prev, ok := bare[name]; ok && prev != f.Source {
			ambiguous[name] = true
			continue
		}
		bare[name] = f.Source
	}
	for name, src := range bare {
		if ambiguous[name] {
			continue
		}
		if _, taken := names[name]; !taken {
			names[name] = src
		}
	}
	return names
}

func renderUnion(q *ir.Query) queryir.Fragment {
	var f queryir.Fragment
	for i, member := range q.Union {
		if i > 0 {
			f.Text(" union ")
		}
		f.Ref(member, "")
	}
	return f
}
