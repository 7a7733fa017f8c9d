// Package store provides the session-scoped Query Store.
//
// The store maps query names to their model and holds the rendered-SQL cache
// of one build cycle:
//   - Queries are added (or opened) before being populated
//   - The composer reads a Snapshot, so rendering never mutates the model
//   - Composed text is Put into the cache and consumed with Take, which
//     returns and removes entries in one locked step; a second Take with no
//     new Put returns nothing
//   - Remove drops the queries a request released; Reset drops everything
//
// A Store is meant for one logical request. The mutex makes Take atomic with
// respect to other readers; it does not make concurrent mutation of a
// *ir.Query obtained from Open safe.
package store
