// Package ir provides the in-memory query model for SuQL.
//
// This package contains the data model and error kinds only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Field order inside a Query is select-list order
//   - Modifier order inside a Field is execution order
//   - Query mutation is append-only; only the modifier pipeline rewrites
//     a field expression, and it does so on a clone
package ir
