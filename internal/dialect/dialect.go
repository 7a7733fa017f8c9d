// Package dialect provides the pluggable SQL dialect adapters.
//
// The composer emits ANSI-ish lower-case SQL and treats identifiers as a
// pass-through. The adapter's job is literal binding: values that the core
// places into SQL text (case-modifier results) are rendered through Literal
// so they are escaped for the target engine rather than interpolated raw.
package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Adapter renders dialect-specific pieces of SQL.
type Adapter interface {
	// Name is the registry key, e.g. "mysql".
	Name() string

	// Literal renders v as a safely escaped SQL literal.
	Literal(v any) string
}

// MySQL escapes quotes and backslashes with a backslash and renders
// booleans as 1/0.
type MySQL struct{}

// Name returns "mysql".
func (MySQL) Name() string { return "mysql" }

// Literal renders v as a MySQL literal.
func (MySQL) Literal(v any) string {
	return literal(v, func(s string) string {
		s = strings.ReplaceAll(s, `\`, `\\`)
		return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}, "1", "0")
}

// SQLite doubles single quotes and renders booleans as 1/0.
type SQLite struct{}

// Name returns "sqlite".
func (SQLite) Name() string { return "sqlite" }

// Literal renders v as a SQLite literal.
func (SQLite) Literal(v any) string {
	return literal(v, quoteStandard, "1", "0")
}

// Postgres doubles single quotes and renders booleans as true/false.
type Postgres struct{}

// Name returns "postgres".
func (Postgres) Name() string { return "postgres" }

// Literal renders v as a PostgreSQL literal.
func (Postgres) Literal(v any) string {
	return literal(v, quoteStandard, "true", "false")
}

func quoteStandard(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literal(v any, quote func(string) string, yes, no string) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		if val {
			return yes
		}
		return no
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case fmt.Stringer:
		return quote(val.String())
	default:
		return quote(fmt.Sprint(val))
	}
}

var registry = map[string]Adapter{
	"mysql":      MySQL{},
	"sqlite":     SQLite{},
	"sqlite3":    SQLite{},
	"postgres":   Postgres{},
	"postgresql": Postgres{},
}

// Default returns the adapter used when none is configured (MySQL).
func Default() Adapter {
	return MySQL{}
}

// Lookup returns the adapter registered under name (case-insensitive).
// An empty name yields Default.
func Lookup(name string) (Adapter, error) {
	if name == "" {
		return Default(), nil
	}
	if a, ok := registry[strings.ToLower(name)]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, Names())
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
