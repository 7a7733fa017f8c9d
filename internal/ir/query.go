package ir

import "strings"

// DefaultQuery is the name of the implicit query every session starts with.
const DefaultQuery = "main"

// Kind distinguishes plain selects from unions.
type Kind int

const (
	// KindSelect is a single select statement.
	KindSelect Kind = iota
	// KindUnion joins member queries with "union".
	KindUnion
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// JoinType is the SQL join flavour.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
)

// ParseJoinType maps a case-insensitive join keyword to a JoinType.
// An empty string yields JoinInner.
func ParseJoinType(s string) (JoinType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inner":
		return JoinInner, true
	case "left":
		return JoinLeft, true
	case "right":
		return JoinRight, true
	default:
		return "", false
	}
}

// JoinClause is one resolved join of a select.
type JoinClause struct {
	Type  JoinType `json:"type"`
	Table string   `json:"table"`
	On    string   `json:"on"`
}

// Direction is an order-by direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderEntry is one order-by item.
type OrderEntry struct {
	Expr      string    `json:"expr"`
	Direction Direction `json:"direction"`
}

// Query is one named query in a store: either a select or a union.
//
// From may name another query in the same store, in which case the composer
// inlines that query as a parenthesised sub-select.
type Query struct {
	Name     string       `json:"name"`
	Kind     Kind         `json:"kind"`
	From     string       `json:"from,omitempty"`
	Modifier string       `json:"modifier,omitempty"` // top-level select modifier, e.g. "distinct"
	Joins    []JoinClause `json:"joins,omitempty"`
	Fields   []*Field     `json:"fields,omitempty"`
	Where    []string     `json:"where,omitempty"`
	Having   []string     `json:"having,omitempty"`
	Group    []string     `json:"group,omitempty"`
	Order    []OrderEntry `json:"order,omitempty"`
	Offset   int          `json:"offset,omitempty"` // 0 = unset
	Limit    int          `json:"limit,omitempty"`  // 0 = unset
	Union    []string     `json:"union,omitempty"`  // member query names, in order

	index map[string]int
}

// NewSelect creates an empty select query.
func NewSelect(name string) *Query {
	return &Query{Name: name, Kind: KindSelect}
}

// NewUnion creates an empty union query.
func NewUnion(name string) *Query {
	return &Query{Name: name, Kind: KindUnion}
}

// AddField appends f to the select list and returns the stored field.
// A field with the same key replaces the earlier one in place, keeping
// its select-list position.
func (q *Query) AddField(f Field) *Field {
	if q.index == nil {
		q.index = make(map[string]int, len(q.Fields))
		for i, existing := range q.Fields {
			q.index[existing.Key()] = i
		}
	}
	stored := f.Clone()
	if i, ok := q.index[f.Key()]; ok {
		q.Fields[i] = &stored
		return &stored
	}
	q.index[f.Key()] = len(q.Fields)
	q.Fields = append(q.Fields, &stored)
	return &stored
}

// VisibleFields returns the fields that appear in the select list.
func (q *Query) VisibleFields() []*Field {
	var out []*Field
	for _, f := range q.Fields {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// AddJoin appends a join clause.
func (q *Query) AddJoin(j JoinClause) {
	q.Joins = append(q.Joins, j)
}

// AddWhere appends a raw where predicate. Predicates are ANDed at render time.
func (q *Query) AddWhere(pred string) {
	if pred = strings.TrimSpace(pred); pred != "" {
		q.Where = append(q.Where, pred)
	}
}

// AddHaving appends a raw having predicate.
func (q *Query) AddHaving(pred string) {
	if pred = strings.TrimSpace(pred); pred != "" {
		q.Having = append(q.Having, pred)
	}
}

// AddGroup appends a group-by key.
func (q *Query) AddGroup(expr string) {
	q.Group = append(q.Group, expr)
}

// AddOrder appends an order-by entry.
func (q *Query) AddOrder(expr string, dir Direction) {
	q.Order = append(q.Order, OrderEntry{Expr: expr, Direction: dir})
}

// AddUnion marks q as a union and appends a member reference.
// A leading "@" on the member name is accepted and stripped.
func (q *Query) AddUnion(member string) {
	q.Kind = KindUnion
	q.Union = append(q.Union, strings.TrimPrefix(strings.TrimSpace(member), "@"))
}

// LastTable returns the table most recently added to the from/join chain,
// or "" when the chain is empty.
func (q *Query) LastTable() string {
	if n := len(q.Joins); n > 0 {
		return q.Joins[n-1].Table
	}
	return q.From
}

// Clone returns a deep copy of q.
func (q *Query) Clone() *Query {
	c := *q
	c.Joins = append([]JoinClause(nil), q.Joins...)
	c.Where = append([]string(nil), q.Where...)
	c.Having = append([]string(nil), q.Having...)
	c.Group = append([]string(nil), q.Group...)
	c.Order = append([]OrderEntry(nil), q.Order...)
	c.Union = append([]string(nil), q.Union...)
	c.Fields = make([]*Field, len(q.Fields))
	c.index = nil
	for i, f := range q.Fields {
		fc := f.Clone()
		c.Fields[i] = &fc
	}
	return &c
}
