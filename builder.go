package suql

import (
	"strings"

	"github.com/roach88/suql/internal/ir"
)

// QueryBuilder edits one named query.
type QueryBuilder struct {
	s *Session
	q *ir.Query
}

// Name returns the query name.
func (b *QueryBuilder) Name() string {
	return b.q.Name
}

// Select edits the query as a select. Fields added before any Table call
// continue the last table of an existing chain.
func (b *QueryBuilder) Select() *SelectBuilder {
	return &SelectBuilder{s: b.s, q: b.q, table: b.q.LastTable()}
}

// Union appends a union member. The leading "@" is optional.
func (b *QueryBuilder) Union(member string) *QueryBuilder {
	b.q.AddUnion(member)
	return b
}

// SelectBuilder builds a select query. Errors are recorded on the session
// and reported by Session.Err and the next SQL request.
type SelectBuilder struct {
	s     *Session
	q     *ir.Query
	table string // table that new fields belong to
}

// Query switches to another query of the same session.
func (b *SelectBuilder) Query(name string) *QueryBuilder {
	return b.s.Query(name)
}

// Table adds the next table of the from/join chain. The first table becomes
// the from source; each following one is inner-joined using the
// relationship declared with the previous table. "@name" names a query
// declared earlier in the session; a name that matches a query in the store
// is nested too. An optional modifier ("distinct") applies to the whole
// select.
func (b *SelectBuilder) Table(name string, modifier ...string) *SelectBuilder {
	if len(modifier) > 0 {
		b.Modifier(modifier[0])
	}
	return b.addSource(ir.JoinInner, name, nil)
}

// Join adds an explicitly typed join ("inner", "left", "right") whose
// predicate comes from the relationship graph.
func (b *SelectBuilder) Join(joinType, table string) *SelectBuilder {
	jt, ok := ir.ParseJoinType(joinType)
	if !ok {
		b.s.fail(ir.NewConfigurationError("unknown join type %q", joinType))
		return b
	}
	return b.addSource(jt, table, nil)
}

// JoinOn adds a join with an explicit predicate, for sources with no
// declared relationship such as nested queries.
func (b *SelectBuilder) JoinOn(joinType, table, on string) *SelectBuilder {
	jt, ok := ir.ParseJoinType(joinType)
	if !ok {
		b.s.fail(ir.NewConfigurationError("unknown join type %q", joinType))
		return b
	}
	return b.addSource(jt, table, &on)
}

func (b *SelectBuilder) addSource(jt ir.JoinType, name string, on *string) *SelectBuilder {
	name, err := b.s.nested(b.q.Name, strings.TrimSpace(name))
	if err != nil {
		b.s.fail(err)
		return b
	}
	if !ir.IsIdent(name) {
		b.s.fail(ir.NewConfigurationError("invalid table name %q", name))
		return b
	}

	if b.q.From == "" {
		b.q.From = name
		b.table = name
		return b
	}

	pred := ""
	if on != nil {
		pred = strings.TrimSpace(*on)
	} else {
		resolved, err := b.s.graph.Resolve(b.q.LastTable(), name)
		if err != nil {
			b.s.fail(err)
			return b
		}
		pred = resolved
	}
	b.q.AddJoin(ir.JoinClause{Type: jt, Table: name, On: pred})
	b.table = name
	return b
}

// Distinct makes the select distinct.
func (b *SelectBuilder) Distinct() *SelectBuilder {
	return b.Modifier("distinct")
}

// Modifier sets the top-level select modifier.
func (b *SelectBuilder) Modifier(m string) *SelectBuilder {
	b.q.Modifier = strings.ToLower(strings.TrimSpace(m))
	return b
}

// Field adds a field of the current table from a spec: "name",
// "name@alias", "*" or a raw expression.
func (b *SelectBuilder) Field(spec string) *FieldBuilder {
	expr, alias := ir.ParseFieldSpec(spec)
	return b.FieldAs(expr, alias)
}

// FieldAs adds a field of the current table with an explicit alias.
func (b *SelectBuilder) FieldAs(expr, alias string) *FieldBuilder {
	f := b.q.AddField(ir.NewField(b.table, expr, alias, true))
	return &FieldBuilder{SelectBuilder: b, f: f}
}

// Where adds a predicate. Predicates are ANDed. Aliases and bare field names
// of the select list are qualified at render time; "@name" inlines a query.
func (b *SelectBuilder) Where(pred string) *SelectBuilder {
	b.q.AddWhere(pred)
	return b
}

// Having adds a having predicate.
func (b *SelectBuilder) Having(pred string) *SelectBuilder {
	b.q.AddHaving(pred)
	return b
}

// GroupBy adds a group by key.
func (b *SelectBuilder) GroupBy(expr string) *SelectBuilder {
	b.q.AddGroup(strings.TrimSpace(expr))
	return b
}

// OrderBy adds an order by entry.
func (b *SelectBuilder) OrderBy(expr string, dir Direction) *SelectBuilder {
	b.q.AddOrder(strings.TrimSpace(expr), dir)
	return b
}

// Offset sets the row offset. Zero means none.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.q.Offset = max(n, 0)
	return b
}

// Limit sets the row limit. Zero means none.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.q.Limit = max(n, 0)
	return b
}

// FieldBuilder attaches modifiers to the field added last. Modifiers run in
// the order they are attached. It embeds the select builder so the chain can
// go on with the next field or clause.
type FieldBuilder struct {
	*SelectBuilder
	f *ir.Field
}

// Hidden keeps the field out of the select list. Its modifiers still apply.
func (b *FieldBuilder) Hidden() *FieldBuilder {
	if !strings.HasSuffix(b.f.Source, "*") {
		b.f.Visible = false
	}
	return b
}

// Count wraps the field in count().
func (b *FieldBuilder) Count() *FieldBuilder { return b.Modifier("count") }

// Sum wraps the field in sum().
func (b *FieldBuilder) Sum() *FieldBuilder { return b.Modifier("sum") }

// Min wraps the field in min().
func (b *FieldBuilder) Min() *FieldBuilder { return b.Modifier("min") }

// Max wraps the field in max().
func (b *FieldBuilder) Max() *FieldBuilder { return b.Modifier("max") }

// Group groups by the field's current expression. With a value it also adds
// "<field> = <value>" to having.
func (b *FieldBuilder) Group(value ...string) *FieldBuilder {
	return b.Modifier("group", value...)
}

// Asc orders by the field ascending.
func (b *FieldBuilder) Asc() *FieldBuilder { return b.Modifier("asc") }

// Desc orders by the field descending.
func (b *FieldBuilder) Desc() *FieldBuilder { return b.Modifier("desc") }

// Case replaces the field by a case expression.
func (b *FieldBuilder) Case(branches ...CaseBranch) *FieldBuilder {
	b.f.AddModifier(ir.NewCaseCall(branches...))
	return b
}

// Modifier attaches a modifier by name. Names other than the built-in ones
// wrap the field in a function call of that name: Modifier("round", "2")
// renders round(expr, 2).
func (b *FieldBuilder) Modifier(name string, params ...string) *FieldBuilder {
	b.f.AddModifier(ir.NewModifierCall(name, params...))
	return b
}
