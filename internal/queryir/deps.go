package queryir

import "github.com/roach88/suql/internal/ir"

// Dependencies lists the queries q nests, in clause order and without
// duplicates: from/join sources that name a query in cat, @references in
// where and having, and union members. References to absent queries are
// included so callers can report them.
func Dependencies(cat Catalog, q *ir.Query) []string {
	var (
		out  []string
		seen = map[string]bool{}
	)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	if q.Kind == ir.KindUnion {
		for _, m := range q.Union {
			add(m)
		}
		return out
	}

	sources := []string{q.From}
	for _, j := range q.Joins {
		sources = append(sources, j.Table)
	}
	for _, s := range sources {
		if _, ok := cat.Lookup(s); ok {
			add(s)
		}
	}
	for _, pred := range append(append([]string(nil), q.Where...), q.Having...) {
		for _, ref := range Qualify(pred, nil).Refs() {
			add(ref)
		}
	}
	return out
}
