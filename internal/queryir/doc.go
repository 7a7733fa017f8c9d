// Package queryir provides the span-level intermediate representation the
// SQL composer works on.
//
// Rendered SQL is not a flat string. It is a Fragment: an ordered list of
// segments that are either literal Text or a Ref to another named query.
// Composition replaces each Ref by the composed text of the referenced query,
// so nesting never relies on search-and-replace over SQL text.
//
// The same idea applies to where-clause qualification. Predicates are split by
// Lex into tokens (identifiers, quoted strings, @references, punctuation,
// whitespace) and only whole identifier tokens are rewritten. An alias "id"
// therefore never touches "uid" or "users.id" or the string literal 'id'.
//
// SEALED INTERFACES:
//
// Segment is a sealed interface using the marker method pattern. Only Text
// and Ref implement it, so backends can switch exhaustively:
//
//	switch s := seg.(type) {
//	case Text:
//	    // literal SQL
//	case Ref:
//	    // inline the referenced query
//	}
package queryir
