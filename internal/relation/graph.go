// Package relation stores declared relationships between tables and
// resolves the join predicate for a pair of adjacent tables.
package relation

import (
	"strings"

	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/queryir"
)

// TableRef names a table and the optional alias its predicates use.
type TableRef struct {
	Table string `json:"table" yaml:"table"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Name returns the alias if set, else the table.
func (t TableRef) Name() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Table
}

func (t TableRef) validate() error {
	if !ir.IsIdent(t.Table) {
		return ir.NewConfigurationError("invalid table name %q", t.Table)
	}
	if t.Alias != "" && !ir.IsIdent(t.Alias) {
		return ir.NewConfigurationError("invalid alias %q for table %s", t.Alias, t.Table)
	}
	return nil
}

// Relationship is one declared pairwise relationship. On is stored already
// rewritten to use table names rather than aliases.
type Relationship struct {
	Left  TableRef `json:"left"`
	Right TableRef `json:"right"`
	On    string   `json:"on"`
}

// Graph is the append-only set of relationships of a session. Lookup is
// undirected and strictly pairwise: there is no path finding.
type Graph struct {
	rels    map[pairKey]Relationship
	order   []pairKey
	aliases map[string]string // alias -> table
}

type pairKey struct{ a, b string }

func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		rels:    make(map[pairKey]Relationship),
		aliases: make(map[string]string),
	}
}

// Declare registers a relationship between left and right joined by on.
//
// The predicate may refer to either side by alias or by table; aliases are
// rewritten to table names ("u.id = ug.user_id" becomes
// "users.id = user_group.user_id"). Re-declaring an identical relationship is
// a no-op; re-declaring a pair with a different predicate, or reusing an
// alias for another table, is a ConfigurationError.
func (g *Graph) Declare(left, right TableRef, on string) error {
	if err := left.validate(); err != nil {
		return err
	}
	if err := right.validate(); err != nil {
		return err
	}
	if left.Table == right.Table {
		return ir.NewConfigurationError("relationship of %s with itself", left.Table)
	}
	on = strings.TrimSpace(on)
	if on == "" {
		return ir.NewConfigurationError("empty predicate for %s and %s", left.Table, right.Table)
	}
	for _, ref := range []TableRef{left, right} {
		if ref.Alias == "" {
			continue
		}
		if table, ok := g.aliases[ref.Alias]; ok && table != ref.Table {
			return ir.NewConfigurationError("alias %s already names table %s", ref.Alias, table)
		}
	}

	renames := map[string]string{}
	if left.Alias != "" {
		renames[left.Alias] = left.Table
	}
	if right.Alias != "" {
		renames[right.Alias] = right.Table
	}
	rel := Relationship{
		Left:  left,
		Right: right,
		On:    queryir.RenameQualifiers(on, renames),
	}

	key := newPairKey(left.Table, right.Table)
	if existing, ok := g.rels[key]; ok {
		if existing.On == rel.On {
			return nil
		}
		return ir.NewConfigurationError("relationship between %s and %s already declared as %q",
			left.Table, right.Table, existing.On)
	}

	g.rels[key] = rel
	g.order = append(g.order, key)
	for _, ref := range []TableRef{left, right} {
		if ref.Alias != "" {
			g.aliases[ref.Alias] = ref.Table
		}
	}
	return nil
}

// Resolve returns the predicate joining from and to, in either declaration
// direction. Both arguments may be a table name or a declared alias.
func (g *Graph) Resolve(from, to string) (string, error) {
	rel, ok := g.rels[newPairKey(g.table(from), g.table(to))]
	if !ok {
		return "", ir.NewUnresolvedJoinError(from, to)
	}
	return rel.On, nil
}

// Has reports whether a relationship was declared for the unordered pair.
func (g *Graph) Has(a, b string) bool {
	_, ok := g.rels[newPairKey(g.table(a), g.table(b))]
	return ok
}

// Relationships returns all relationships in declaration order.
func (g *Graph) Relationships() []Relationship {
	out := make([]Relationship, len(g.order))
	for i, key := range g.order {
		out[i] = g.rels[key]
	}
	return out
}

func (g *Graph) table(name string) string {
	if t, ok := g.aliases[name]; ok {
		return t
	}
	return name
}
