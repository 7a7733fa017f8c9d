package suql

import (
	"github.com/roach88/suql/internal/parser"
)

// Parse loads SuQL text into the session: each "@name = ..." statement
// declares a nested query and the remaining statement becomes the main query.
// Statements are applied in order, so a query must be declared before
// another one references it with "@name".
//
// Syntax errors are returned as *parser.SyntaxError and leave the session
// untouched. Builder errors (unknown relationships, unknown queries) are
// returned and also recorded for the next SQL request.
func (s *Session) Parse(src string) error {
	script, err := parser.Parse(src)
	if err != nil {
		return err
	}

	for _, st := range script.Statements {
		qb := s.Query(st.Name)
		if st.Select == nil {
			for _, member := range st.Union {
				qb.Union(member)
			}
			continue
		}
		s.applySelect(qb.Select(), st.Select)
	}

	s.logger.Debug("script parsed", "session", s.id, "statements", len(script.Statements))
	return s.err
}

func (s *Session) applySelect(b *SelectBuilder, sel *parser.Select) {
	b.Table(sel.From.Table)
	if sel.Modifier != "" {
		b.Modifier(sel.Modifier)
	}
	applyFields(b, sel.From.Fields)

	for _, j := range sel.Joins {
		b.Join(string(j.Join), j.Table)
		applyFields(b, j.Fields)
	}

	b.Where(sel.Where)
	b.Offset(sel.Offset)
	b.Limit(sel.Limit)
}

func applyFields(b *SelectBuilder, fields []parser.FieldToken) {
	for _, tok := range fields {
		f := b.FieldAs(tok.Expr, tok.Alias)
		for _, call := range tok.Modifiers {
			f.Modifier(call.Name, call.Params...)
		}
	}
}
