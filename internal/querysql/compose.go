package querysql

import (
	"errors"
	"slices"
	"strings"

	"github.com/roach88/suql/internal/dialect"
	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/modifier"
	"github.com/roach88/suql/internal/queryir"
)

// Composer turns a catalog of queries into SQL text.
type Composer struct {
	pipeline *modifier.Pipeline
	dialect  dialect.Adapter
}

// NewComposer creates a composer that renders case-modifier literals with d.
// A nil adapter selects dialect.Default().
func NewComposer(d dialect.Adapter) *Composer {
	if d == nil {
		d = dialect.Default()
	}
	return &Composer{pipeline: modifier.New(d), dialect: d}
}

// Dialect returns the adapter the composer renders literals with.
func (c *Composer) Dialect() dialect.Adapter {
	return c.dialect
}

// Compose returns the SQL text of every requested query. With no names it
// composes every query in the catalog.
//
// Each query is rendered once; nested references are then expanded
// recursively. A failing query does not prevent its siblings from composing:
// successful results are returned alongside the joined errors.
func (c *Composer) Compose(cat queryir.Catalog, names ...string) (map[string]string, error) {
	if len(names) == 0 {
		names = cat.Names()
	}

	w := &walk{
		composer: c,
		catalog:  cat,
		rendered: map[string]queryir.Fragment{},
		composed: map[string]string{},
	}

	out := make(map[string]string, len(names))
	var errs []error
	for _, name := range names {
		if _, ok := cat.Lookup(name); !ok {
			errs = append(errs, ir.NewUnknownQueryError("", name))
			continue
		}
		sql, err := w.compose(name, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = sql
	}
	return out, errors.Join(errs...)
}

// walk memoizes rendered fragments and composed text for one Compose call.
type walk struct {
	composer *Composer
	catalog  queryir.Catalog
	rendered map[string]queryir.Fragment
	composed map[string]string
}

func (w *walk) render(name string) (queryir.Fragment, error) {
	if f, ok := w.rendered[name]; ok {
		return f, nil
	}
	f, err := w.composer.Render(w.catalog, name)
	if err != nil {
		return nil, err
	}
	w.rendered[name] = f
	return f, nil
}

// compose expands name. path holds the chain of queries currently being
// expanded; meeting one of them again is a cycle.
func (w *walk) compose(name string, path []string) (string, error) {
	if sql, ok := w.composed[name]; ok {
		return sql, nil
	}
	if slices.Contains(path, name) {
		return "", ir.NewCompositionError(append(path, name))
	}
	path = append(path, name)

	frag, err := w.render(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range frag {
		switch s := seg.(type) {
		case queryir.Text:
			b.WriteString(string(s))
		case queryir.Ref:
			if _, ok := w.catalog.Lookup(s.Name); !ok {
				return "", ir.NewUnknownQueryError(name, s.Name)
			}
			inner, err := w.compose(s.Name, path)
			if err != nil {
				return "", err
			}
			b.WriteString("(" + inner + ")")
			if s.Alias != "" {
				b.WriteString(" " + s.Alias)
			}
		}
	}

	sql := b.String()
	w.composed[name] = sql
	return sql, nil
}
