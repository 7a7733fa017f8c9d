package ir

import "strings"

// ModifierKind is the closed set of field modifiers. Names outside the set
// map to ModAggregate, which wraps the expression in a call named after the
// modifier.
type ModifierKind int

const (
	// ModAggregate wraps the expression as name(expr[, params...]).
	ModAggregate ModifierKind = iota
	ModCount
	ModSum
	ModMin
	ModMax
	ModCase
	ModGroup
	ModAsc
	ModDesc
)

var modifierNames = map[string]ModifierKind{
	"count": ModCount,
	"sum":   ModSum,
	"min":   ModMin,
	"max":   ModMax,
	"case":  ModCase,
	"group": ModGroup,
	"asc":   ModAsc,
	"desc":  ModDesc,
}

// ParseModifier maps a modifier name to its kind. Unknown names yield
// ModAggregate.
func ParseModifier(name string) ModifierKind {
	if k, ok := modifierNames[strings.ToLower(name)]; ok {
		return k
	}
	return ModAggregate
}

// RewritesExpression reports whether the modifier replaces the field
// expression (as opposed to contributing to the owning query).
func (k ModifierKind) RewritesExpression() bool {
	switch k {
	case ModGroup, ModAsc, ModDesc:
		return false
	default:
		return true
	}
}

// CaseDefault is the when-key that becomes the else branch of a case modifier.
const CaseDefault = "default"

// FieldMarker stands for the field's expression inside case conditions.
const FieldMarker = "$"

// CaseBranch is one when/then pair of a case modifier.
type CaseBranch struct {
	When string `json:"when"`
	Then any    `json:"then"`
}

// ModifierCall is one pending modifier on a field.
type ModifierCall struct {
	Kind   ModifierKind `json:"kind"`
	Name   string       `json:"name"`
	Params []string     `json:"params,omitempty"`
	Cases  []CaseBranch `json:"cases,omitempty"`
}

// NewModifierCall builds a call, resolving its kind from name.
func NewModifierCall(name string, params ...string) ModifierCall {
	name = strings.ToLower(strings.TrimSpace(name))
	return ModifierCall{Kind: ParseModifier(name), Name: name, Params: params}
}

// NewCaseCall builds a case modifier call.
func NewCaseCall(branches ...CaseBranch) ModifierCall {
	return ModifierCall{Kind: ModCase, Name: "case", Cases: branches}
}

// Clone returns a copy of m that shares no slices with it.
func (m ModifierCall) Clone() ModifierCall {
	c := m
	c.Params = append([]string(nil), m.Params...)
	c.Cases = append([]CaseBranch(nil), m.Cases...)
	return c
}
