package ir

import (
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent reports whether s is a bare SQL identifier.
func IsIdent(s string) bool {
	return identRe.MatchString(s)
}

// Field is one selected or used column/expression of a Query.
//
// Source is the qualified expression as declared and never changes; Expr is
// the current expression, which expression-rewriting modifiers replace.
type Field struct {
	Table     string         `json:"table"`
	Source    string         `json:"source"`
	Expr      string         `json:"expr"`
	Alias     string         `json:"alias,omitempty"`
	Visible   bool           `json:"visible"`
	Modifiers []ModifierCall `json:"modifiers,omitempty"`
}

// NewField builds a field for table. A bare identifier or "*" is qualified
// with table; any other expression is kept as written. "*" is always visible
// and never aliased.
func NewField(table, expr, alias string, visible bool) Field {
	expr = strings.TrimSpace(expr)
	qualified := expr
	if table != "" && (expr == "*" || IsIdent(expr)) {
		qualified = table + "." + expr
	}
	if expr == "*" {
		alias = ""
		visible = true
	}
	return Field{
		Table:   table,
		Source:  qualified,
		Expr:    qualified,
		Alias:   strings.TrimSpace(alias),
		Visible: visible,
	}
}

// ParseFieldSpec splits "expr@alias" into its parts.
func ParseFieldSpec(spec string) (expr, alias string) {
	spec = strings.TrimSpace(spec)
	if i := strings.LastIndex(spec, "@"); i > 0 {
		return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])
	}
	return spec, ""
}

// Key identifies the field inside its query.
func (f Field) Key() string {
	if f.Alias == "" {
		return f.Source
	}
	return f.Source + "@" + f.Alias
}

// HasAlias reports whether the field is aliased.
func (f Field) HasAlias() bool {
	return f.Alias != ""
}

// Ref is how other clauses refer to the field: its alias when it has one,
// else its current expression.
func (f Field) Ref() string {
	if f.HasAlias() {
		return f.Alias
	}
	return f.Expr
}

// Name is the bare column name the field was declared with, or "" for
// expressions that are not a plain column.
func (f Field) Name() string {
	if f.Table == "" {
		return ""
	}
	name := strings.TrimPrefix(f.Source, f.Table+".")
	if !IsIdent(name) {
		return ""
	}
	return name
}

// AddModifier appends a modifier call; execution follows insertion order.
func (f *Field) AddModifier(call ModifierCall) {
	f.Modifiers = append(f.Modifiers, call)
}

// HasModifiers reports whether any modifier is still pending.
func (f Field) HasModifiers() bool {
	return len(f.Modifiers) > 0
}

// Clone returns a copy of f that shares no slices with it.
func (f Field) Clone() Field {
	c := f
	if f.Modifiers != nil {
		c.Modifiers = make([]ModifierCall, len(f.Modifiers))
		for i, m := range f.Modifiers {
			c.Modifiers[i] = m.Clone()
		}
	}
	return c
}
