// Package querysql renders SuQL queries to SQL text.
//
// Composition runs in two passes:
//
//  1. Render: every query in the catalog is rendered once into a
//     queryir.Fragment using the fixed clause template
//     select/from/join/where/group by/having/order by/limit, with empty
//     clauses omitted. Field modifiers are applied first. Nested queries are
//     not expanded; they are left as queryir.Ref segments.
//  2. Compose: for each requested name the fragment is walked and every Ref
//     is replaced by the recursively composed text of the referenced query,
//     wrapped in one pair of parentheses. Cycles are rejected.
//
// Rendering works on clones, so composing the same catalog twice yields the
// same text.
package querysql
