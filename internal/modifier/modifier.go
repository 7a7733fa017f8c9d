// Package modifier applies field modifiers.
//
// A modifier either rewrites the field expression (count, sum, min, max,
// case and any unknown name, which becomes a function call of that name) or
// contributes to the owning query (group, asc, desc). Application is a pure
// step: it takes the current Field and returns the next Field plus the
// Effects to apply to the owning query. Fields never hold a reference to
// their query.
//
// Order matters. Each modifier sees the field as left by the previous one:
//
//	name.group.count@count  ->  group by groups.name; select count(groups.name) as count
//	name.count.asc@count    ->  order by count asc (the alias, the expression is wrapped)
package modifier

import (
	"fmt"
	"strings"

	"github.com/roach88/suql/internal/ir"
)

// EffectKind says which list of the owning query an Effect appends to.
type EffectKind int

const (
	EffectGroup EffectKind = iota
	EffectHaving
	EffectOrder
)

// Effect is a side effect on the owning query produced by a modifier.
type Effect struct {
	Kind      EffectKind
	Expr      string
	Direction ir.Direction // EffectOrder only
}

// LiteralBinder renders values as escaped SQL literals.
type LiteralBinder interface {
	Literal(v any) string
}

// Pipeline applies modifiers using binder for case-modifier literals.
type Pipeline struct {
	binder LiteralBinder
}

// New creates a pipeline.
func New(binder LiteralBinder) *Pipeline {
	return &Pipeline{binder: binder}
}

// Run applies every pending modifier of f in insertion order and returns the
// resulting field, with no pending modifiers, and the accumulated effects.
func (p *Pipeline) Run(f ir.Field) (ir.Field, []Effect) {
	calls := f.Modifiers
	f = f.Clone()
	f.Modifiers = nil

	var effects []Effect
	for _, call := range calls {
		var eff []Effect
		f, eff = p.Apply(f, call)
		effects = append(effects, eff...)
	}
	return f, effects
}

// Apply applies a single modifier call to f. Unknown modifier names arrive
// as ir.ModAggregate; a kind outside the ir set panics.
func (p *Pipeline) Apply(f ir.Field, call ir.ModifierCall) (ir.Field, []Effect) {
	switch call.Kind {
	case ir.ModCount:
		return wrap(f, "count", call.Params), nil
	case ir.ModSum:
		return wrap(f, "sum", call.Params), nil
	case ir.ModMin:
		return wrap(f, "min", call.Params), nil
	case ir.ModMax:
		return wrap(f, "max", call.Params), nil
	case ir.ModCase:
		return p.caseWhen(f, call.Cases), nil
	case ir.ModGroup:
		return f, group(f, call.Params)
	case ir.ModAsc:
		return f, []Effect{{Kind: EffectOrder, Expr: f.Ref(), Direction: ir.Asc}}
	case ir.ModDesc:
		return f, []Effect{{Kind: EffectOrder, Expr: f.Ref(), Direction: ir.Desc}}
	case ir.ModAggregate:
		return wrap(f, call.Name, call.Params), nil
	default:
		panic(fmt.Sprintf("modifier: unhandled kind %d (%q)", call.Kind, call.Name))
	}
}

// wrap replaces the expression with name(expr[, params...]).
func wrap(f ir.Field, name string, params []string) ir.Field {
	args := append([]string{f.Expr}, params...)
	f.Expr = name + "(" + strings.Join(args, ", ") + ")"
	return f
}

// group puts the current expression into group by. With a parameter it also
// adds "<alias> = <param>" to having.
func group(f ir.Field, params []string) []Effect {
	effects := []Effect{{Kind: EffectGroup, Expr: f.Expr}}
	if len(params) > 0 {
		effects = append(effects, Effect{Kind: EffectHaving, Expr: f.Ref() + " = " + params[0]})
	}
	return effects
}

// caseWhen builds "case when <cond> then <lit> ... [else <lit>] end". The
// field marker in each condition stands for the current expression. The
// default branch is always emitted last.
func (p *Pipeline) caseWhen(f ir.Field, branches []ir.CaseBranch) ir.Field {
	if len(branches) == 0 {
		return f
	}
	parts := make([]string, 0, len(branches))
	var otherwise string
	for _, br := range branches {
		if br.When == ir.CaseDefault {
			otherwise = "else " + p.binder.Literal(br.Then)
			continue
		}
		cond := strings.ReplaceAll(br.When, ir.FieldMarker, f.Expr)
		parts = append(parts, "when "+cond+" then "+p.binder.Literal(br.Then))
	}
	if otherwise != "" {
		parts = append(parts, otherwise)
	}
	f.Expr = "case " + strings.Join(parts, " ") + " end"
	return f
}

// ApplyEffects appends effects to q in order.
func ApplyEffects(q *ir.Query, effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectGroup:
			q.AddGroup(e.Expr)
		case EffectHaving:
			q.AddHaving(e.Expr)
		case EffectOrder:
			q.AddOrder(e.Expr, e.Direction)
		}
	}
}
