package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/queryir"
)

// Parse parses SuQL source. The source is NFC-normalized first so that
// identifiers compare equal regardless of how they were typed.
func Parse(src string) (*Script, error) {
	src = norm.NFC.String(src)
	script := &Script{}

	toks := tokenize(src)
	for _, t := range toks {
		if t.Unterminated {
			return nil, &SyntaxError{Pos: positionAt(src, t.off), Message: "unterminated string literal"}
		}
	}

	for _, stmt := range splitStatements(toks) {
		p := &parser{src: src, toks: stmt, end: len(src)}
		if n := len(stmt); n > 0 {
			p.end = stmt[n-1].off + len(stmt[n-1].Text)
		}
		first := p.peek()
		if first == nil {
			continue
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		if _, dup := script.Lookup(st.Name); dup {
			return nil, p.errorf(first, "query %q declared twice", st.Name)
		}
		script.Statements = append(script.Statements, st)
	}

	if len(script.Statements) == 0 {
		return nil, &SyntaxError{Pos: Position{Line: 1, Column: 1}, Message: "no statements"}
	}
	return script, nil
}

// token is a lexer token with its byte offset in the source.
type token struct {
	queryir.Token
	off int
}

func tokenize(src string) []token {
	lexed := queryir.Lex(src)
	out := make([]token, len(lexed))
	off := 0
	for i, t := range lexed {
		out[i] = token{Token: t, off: off}
		off += len(t.Text)
	}
	return out
}

// splitStatements splits at top-level ";". Text after the last ";" is a
// statement too.
func splitStatements(toks []token) [][]token {
	var out [][]token
	start := 0
	for i, t := range toks {
		if t.Kind == queryir.TokPunct && t.Text == ";" {
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	return append(out, toks[start:])
}

type parser struct {
	src  string
	toks []token
	pos  int
	end  int // offset reported for errors at end of statement
}

func (p *parser) skipSpace() {
	for p.pos < len(p.toks) && p.toks[p.pos].Kind == queryir.TokSpace {
		p.pos++
	}
}

// peek returns the next non-space token without consuming it.
func (p *parser) peek() *token {
	p.skipSpace()
	if p.pos >= len(p.toks) {
		return nil
	}
	return &p.toks[p.pos]
}

func (p *parser) next() *token {
	t := p.peek()
	if t != nil {
		p.pos++
	}
	return t
}

// adjacent returns the token directly at the cursor, spaces included.
func (p *parser) adjacent() *token {
	if p.pos >= len(p.toks) {
		return nil
	}
	return &p.toks[p.pos]
}

func isKeyword(t *token, kw string) bool {
	return t != nil && t.Kind == queryir.TokIdent && strings.EqualFold(t.Text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if isKeyword(p.peek(), kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptPunct(s string) bool {
	if t := p.peek(); t != nil && t.Kind == queryir.TokPunct && t.Text == s {
		p.pos++
		return true
	}
	return false
}

func (p *parser) position(t *token) Position {
	off := p.end
	if t != nil {
		off = t.off
	}
	return positionAt(p.src, off)
}

// positionAt converts a byte offset of src to a line and rune column.
func positionAt(src string, off int) Position {
	line := 1 + strings.Count(src[:off], "\n")
	lineStart := strings.LastIndex(src[:off], "\n") + 1
	return Position{Line: line, Column: 1 + utf8.RuneCountInString(src[lineStart:off])}
}

func (p *parser) errorf(t *token, format string, args ...any) error {
	return &SyntaxError{Pos: p.position(t), Message: fmt.Sprintf(format, args...)}
}

func describe(t *token) string {
	if t == nil {
		return "end of statement"
	}
	return strconv.Quote(t.Text)
}

// statement parses [@name =] (select | union).
func (p *parser) statement() (*Statement, error) {
	first := p.peek()
	st := &Statement{Name: ir.DefaultQuery, Pos: p.position(first)}

	if first.Kind == queryir.TokRef {
		save := p.pos
		p.pos++
		if p.acceptPunct("=") {
			st.Name = first.Name()
		} else {
			p.pos = save
		}
	}

	t := p.peek()
	switch {
	case isKeyword(t, "select"):
		sel, err := p.selectStmt()
		if err != nil {
			return nil, err
		}
		st.Select = sel
	case t != nil && t.Kind == queryir.TokRef:
		members, err := p.union()
		if err != nil {
			return nil, err
		}
		st.Union = members
	default:
		return nil, p.errorf(t, "expected SELECT or @query, found %s", describe(t))
	}
	return st, nil
}

// union parses @a UNION @b [UNION @c]...
func (p *parser) union() ([]string, error) {
	members := []string{p.next().Name()}
	for p.acceptKeyword("union") {
		t := p.next()
		if t == nil || t.Kind != queryir.TokRef {
			return nil, p.errorf(t, "expected @query after UNION, found %s", describe(t))
		}
		members = append(members, t.Name())
	}
	if len(members) < 2 {
		t := p.peek()
		return nil, p.errorf(t, "expected UNION, found %s", describe(t))
	}
	if t := p.peek(); t != nil {
		return nil, p.errorf(t, "unexpected %s after union", describe(t))
	}
	return members, nil
}

func (p *parser) selectStmt() (*Select, error) {
	p.next() // SELECT
	sel := &Select{}
	if p.acceptKeyword("distinct") {
		sel.Modifier = "distinct"
	}
	if !p.acceptKeyword("from") {
		t := p.peek()
		return nil, p.errorf(t, "expected FROM, found %s", describe(t))
	}

	from, err := p.source("")
	if err != nil {
		return nil, err
	}
	sel.From = from

	for {
		jt, ok := p.joinStart()
		if !ok {
			break
		}
		src, err := p.source(jt)
		if err != nil {
			return nil, err
		}
		sel.Joins = append(sel.Joins, src)
	}

	if p.acceptKeyword("where") {
		where := p.rawUntil("offset", "limit")
		if where == "" {
			return nil, p.errorf(p.peek(), "empty WHERE clause")
		}
		sel.Where = where
	}

	if p.acceptKeyword("offset") {
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		sel.Offset = n
	}

	if p.acceptKeyword("limit") {
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		if p.acceptPunct(",") {
			m, err := p.integer()
			if err != nil {
				return nil, err
			}
			sel.Offset, sel.Limit = n, m
		} else {
			sel.Limit = n
		}
	}

	if t := p.peek(); t != nil {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	return sel, nil
}

// joinStart consumes [INNER|LEFT|RIGHT] JOIN.
func (p *parser) joinStart() (ir.JoinType, bool) {
	t := p.peek()
	if isKeyword(t, "join") {
		p.pos++
		return ir.JoinInner, true
	}
	if t == nil || t.Kind != queryir.TokIdent {
		return "", false
	}
	jt, ok := ir.ParseJoinType(t.Text)
	if !ok {
		return "", false
	}
	save := p.pos
	p.pos++
	if p.acceptKeyword("join") {
		return jt, true
	}
	p.pos = save
	return "", false
}

// atClause reports whether the cursor is at a keyword that ends a field list.
func (p *parser) atClause() bool {
	t := p.peek()
	for _, kw := range []string{"where", "offset", "limit", "join"} {
		if isKeyword(t, kw) {
			return true
		}
	}
	save := p.pos
	_, ok := p.joinStart()
	p.pos = save
	return ok
}

func (p *parser) source(jt ir.JoinType) (Source, error) {
	t := p.next()
	src := Source{Join: jt}
	switch {
	case t != nil && t.Kind == queryir.TokIdent:
		src.Table = t.Text
	case t != nil && t.Kind == queryir.TokRef:
		src.Table = t.Text
	default:
		return src, p.errorf(t, "expected table name, found %s", describe(t))
	}

	for {
		if p.peek() == nil || p.atClause() {
			return src, nil
		}
		f, err := p.field()
		if err != nil {
			return src, err
		}
		src.Fields = append(src.Fields, f)
		if !p.acceptPunct(",") {
			return src, nil
		}
	}
}

// field parses expr(.modifier[(params)])*(@alias)? with no spaces inside.
func (p *parser) field() (FieldToken, error) {
	t := p.next()
	var f FieldToken
	switch {
	case t != nil && t.Kind == queryir.TokPunct && t.Text == "*":
		f.Expr = "*"
	case t != nil && t.Kind == queryir.TokIdent:
		f.Expr = t.Text
	default:
		return f, p.errorf(t, "expected field, found %s", describe(t))
	}

	for {
		dot := p.adjacent()
		if dot == nil || dot.Kind != queryir.TokPunct || dot.Text != "." {
			break
		}
		p.pos++
		name := p.adjacent()
		if name == nil || name.Kind != queryir.TokIdent {
			return f, p.errorf(name, "expected modifier name after \".\"")
		}
		p.pos++

		var params []string
		if open := p.adjacent(); open != nil && open.Text == "(" {
			var err error
			if params, err = p.params(); err != nil {
				return f, err
			}
		}
		f.Modifiers = append(f.Modifiers, ir.NewModifierCall(name.Text, params...))
	}

	if alias := p.adjacent(); alias != nil && alias.Kind == queryir.TokRef {
		f.Alias = alias.Name()
		p.pos++
	}
	return f, nil
}

// params consumes a parenthesised, comma separated argument list. Arguments
// are kept as raw SQL text.
func (p *parser) params() ([]string, error) {
	open := &p.toks[p.pos]
	p.pos++

	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for ; p.pos < len(p.toks); p.pos++ {
		t := p.toks[p.pos]
		switch {
		case t.Text == "(":
			depth++
		case t.Text == ")" && depth == 0:
			p.pos++
			flush()
			return out, nil
		case t.Text == ")":
			depth--
		case t.Text == "," && depth == 0:
			flush()
			continue
		}
		cur.WriteString(t.Text)
	}
	return nil, p.errorf(open, "unterminated modifier parameters")
}

// rawUntil returns the source text up to the first top-level stop keyword.
func (p *parser) rawUntil(stops ...string) string {
	var b strings.Builder
	depth := 0
	for ; p.pos < len(p.toks); p.pos++ {
		t := &p.toks[p.pos]
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 {
			for _, kw := range stops {
				if isKeyword(t, kw) {
					return strings.TrimSpace(b.String())
				}
			}
		}
		b.WriteString(t.Text)
	}
	return strings.TrimSpace(b.String())
}

func (p *parser) integer() (int, error) {
	t := p.next()
	if t == nil || t.Kind != queryir.TokNumber {
		return 0, p.errorf(t, "expected number, found %s", describe(t))
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil || n < 0 {
		return 0, p.errorf(t, "invalid count %s", describe(t))
	}
	return n, nil
}
