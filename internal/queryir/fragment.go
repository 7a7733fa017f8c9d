package queryir

import "strings"

// Segment is one piece of a rendered query.
//
// This is a sealed interface - only Text and Ref implement it.
type Segment interface {
	segmentNode() // Marker method - seals interface to this package
}

// Text is literal SQL.
type Text string

func (Text) segmentNode() {}

// Ref marks where the composed text of another named query belongs.
//
// Semantics:
//
//	(<composed Name>)          when Alias is empty
//	(<composed Name>) <Alias>  otherwise
//
// Ref with an alias is used for nested sources in from/join; a bare Ref is
// used for @name references inside predicates and for union members.
type Ref struct {
	Name  string
	Alias string
}

func (Ref) segmentNode() {}

// Fragment is an ordered list of segments. Adjacent Text segments are merged
// on append.
type Fragment []Segment

// Text appends literal SQL.
func (f *Fragment) Text(s string) {
	if s == "" {
		return
	}
	if n := len(*f); n > 0 {
		if prev, ok := (*f)[n-1].(Text); ok {
			(*f)[n-1] = prev + Text(s)
			return
		}
	}
	*f = append(*f, Text(s))
}

// Ref appends a query reference.
func (f *Fragment) Ref(name, alias string) {
	*f = append(*f, Ref{Name: name, Alias: alias})
}

// Append appends every segment of other.
func (f *Fragment) Append(other Fragment) {
	for _, seg := range other {
		switch s := seg.(type) {
		case Text:
			f.Text(string(s))
		case Ref:
			f.Ref(s.Name, s.Alias)
		}
	}
}

// Refs returns the referenced query names in order of appearance.
func (f Fragment) Refs() []string {
	var names []string
	for _, seg := range f {
		if r, ok := seg.(Ref); ok {
			names = append(names, r.Name)
		}
	}
	return names
}

// String renders the fragment with references shown as @name, for
// diagnostics.
func (f Fragment) String() string {
	var b strings.Builder
	for _, seg := range f {
		switch s := seg.(type) {
		case Text:
			b.WriteString(string(s))
		case Ref:
			b.WriteString("@" + s.Name)
			if s.Alias != "" {
				b.WriteString(" " + s.Alias)
			}
		}
	}
	return b.String()
}

// JoinFragments concatenates fragments separated by sep.
func JoinFragments(parts []Fragment, sep string) Fragment {
	var out Fragment
	for i, p := range parts {
		if i > 0 {
			out.Text(sep)
		}
		out.Append(p)
	}
	return out
}

// Qualify lexes a predicate into a Fragment. Every @name token becomes a
// Ref. A standalone identifier found in names is replaced by its mapped value;
// an identifier is standalone when it is not next to a "." (so it is not part
// of a qualified name) and is not followed by "(" (so it is not a function
// call). Quoted strings are never rewritten.
func Qualify(pred string, names map[string]string) Fragment {
	toks := Lex(pred)
	var out Fragment
	for i, tok := range toks {
		switch tok.Kind {
		case TokRef:
			out.Ref(tok.Name(), "")
		case TokIdent:
			if repl, ok := names[tok.Text]; ok && standalone(toks, i) {
				out.Text(repl)
				continue
			}
			out.Text(tok.Text)
		default:
			out.Text(tok.Text)
		}
	}
	return out
}

// RenameQualifiers rewrites the qualifier of every qualified name
// ("u.id" -> "users.id") using renames. Unqualified identifiers and string
// literals are left untouched.
func RenameQualifiers(pred string, renames map[string]string) string {
	toks := Lex(pred)
	var b strings.Builder
	for i, tok := range toks {
		if tok.Kind == TokIdent && i+1 < len(toks) && toks[i+1].Text == "." {
			if prev := i - 1; prev < 0 || toks[prev].Text != "." {
				if repl, ok := renames[tok.Text]; ok {
					b.WriteString(repl)
					continue
				}
			}
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

func standalone(toks []Token, i int) bool {
	if i > 0 && toks[i-1].Text == "." {
		return false
	}
	if i+1 < len(toks) && toks[i+1].Text == "." {
		return false
	}
	if next := nextSignificant(toks, i); next >= 0 && toks[next].Text == "(" {
		return false
	}
	return true
}
