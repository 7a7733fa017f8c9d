// Package suql compiles relationship-aware query descriptions into SQL.
//
// Relationships between tables are declared once per session. Queries then
// name their tables in order and the joins are derived from the declared
// relationships:
//
//	s, _ := suql.New()
//	s.Rel(suql.T("users", "u"), suql.T("user_group", "ug"), "u.id = ug.user_id")
//	s.Rel(suql.T("user_group", "ug"), suql.T("groups", "g"), "ug.group_id = g.id")
//
//	s.Select().
//		Table("users").
//		Table("user_group").
//		Table("groups").
//		Field("name@gname").
//		Field("name@count").Group().Count().
//		Where("gname = 'admin'")
//
//	sql, err := s.SQL()
//	// select groups.name as gname, count(groups.name) as count from users
//	// inner join user_group on users.id = user_group.user_id
//	// inner join groups on user_group.group_id = groups.id
//	// where groups.name = 'admin' group by groups.name
//
// The same queries can be written as SuQL text and loaded with Parse.
//
// Taking SQL consumes the requested queries and the queries they nest; other
// queries stay in the store for a later request and the relationships are
// kept. A Session is not safe
// for concurrent use; create one per logical request.
package suql

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/suql/internal/dialect"
	"github.com/roach88/suql/internal/ir"
	"github.com/roach88/suql/internal/queryir"
	"github.com/roach88/suql/internal/querysql"
	"github.com/roach88/suql/internal/relation"
	"github.com/roach88/suql/internal/store"
)

// AllQueries requests every query in the store from SQLFor.
const AllQueries = "all"

// Session holds the relationship graph and the query store of one build
// cycle.
type Session struct {
	id       string
	graph    *relation.Graph
	store    *store.Store
	composer *querysql.Composer
	logger   *slog.Logger

	// err is the first builder error since the last SQL request.
	err error

	// taken holds names consumed by earlier requests.
	taken map[string]bool
}

// Option configures a Session.
type Option func(*config)

type config struct {
	dialect string
	logger  *slog.Logger
	ids     IDGenerator
}

// WithDialect selects the SQL dialect by name ("mysql", "sqlite",
// "postgres"). Default: mysql.
func WithDialect(name string) Option {
	return func(c *config) {
		c.dialect = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithIDGenerator sets the generator for the session identifier attached to
// log records. Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(c *config) {
		c.ids = gen
	}
}

// New creates a session. It fails only for an unknown dialect name.
func New(opts ...Option) (*Session, error) {
	cfg := &config{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	d, err := dialect.Lookup(cfg.dialect)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       cfg.ids.Generate(),
		graph:    relation.NewGraph(),
		store:    store.New(),
		composer: querysql.NewComposer(d),
		logger:   cfg.logger,
		taken:    map[string]bool{},
	}
	s.logger.Debug("session created", "session", s.id, "dialect", d.Name())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Dialect returns the name of the session's SQL dialect.
func (s *Session) Dialect() string {
	return s.composer.Dialect().Name()
}

// Rel declares the relationship between two tables. The predicate may use
// the aliases given in the table references.
func (s *Session) Rel(left, right TableRef, on string) error {
	if err := s.graph.Declare(left, right, on); err != nil {
		return err
	}
	s.logger.Debug("relationship declared",
		"session", s.id,
		"left", left.Table,
		"right", right.Table,
	)
	return nil
}

// Relationships returns the declared relationships in declaration order.
func (s *Session) Relationships() []Relationship {
	return s.graph.Relationships()
}

// Query opens the query called name, creating it if needed. An empty name
// opens the main query.
func (s *Session) Query(name string) *QueryBuilder {
	if name == "" {
		name = ir.DefaultQuery
	}
	return &QueryBuilder{s: s, q: s.store.Open(name)}
}

// Select starts (or continues) the main select.
func (s *Session) Select() *SelectBuilder {
	return s.Query(ir.DefaultQuery).Select()
}

// Catalog returns a point-in-time copy of the queries built so far, for
// static checks such as queryir.Validate.
func (s *Session) Catalog() queryir.Catalog {
	return s.store.Snapshot()
}

// Err returns the first error recorded by a builder call since the last SQL
// request.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) fail(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

// SQL composes and takes the main query. It returns "" once the store has
// been consumed.
func (s *Session) SQL() (string, error) {
	out, err := s.SQLFor(ir.DefaultQuery)
	if err != nil {
		return "", err
	}
	return out[ir.DefaultQuery], nil
}

// SQLFor composes and takes the named queries. AllQueries (or no names at
// all when the store has no main query) requests every query.
//
// Names that compose are returned even when others fail; the failures are
// joined in the error. The requested queries and the queries they nest are
// then released; queries that were not requested stay in the store. A name
// that was already taken yields nothing until it is built again.
//
// A pending builder error fails the whole request and clears the store.
func (s *Session) SQLFor(names ...string) (map[string]string, error) {
	if s.err != nil {
		err := s.err
		s.reset()
		return map[string]string{}, err
	}
	if s.store.Len() == 0 {
		return map[string]string{}, nil
	}

	names = slices.DeleteFunc(s.expand(names), func(name string) bool {
		return s.taken[name] && !s.store.Has(name)
	})
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	cat := s.store.Snapshot()
	out, err := s.composer.Compose(cat, names...)
	for name, sql := range out {
		s.store.Put(name, sql)
	}
	taken := s.store.Take(names...)
	s.release(cat, names)

	size := 0
	for _, sql := range taken {
		size += len(sql)
	}
	s.logger.Debug("queries composed",
		"session", s.id,
		"names", names,
		"bytes", size,
		"remaining", s.store.Len(),
	)
	if err != nil {
		s.logger.Warn("composition failed", "session", s.id, "error", err)
	}
	return taken, err
}

// expand resolves the requested names. The result never aliases names.
func (s *Session) expand(names []string) []string {
	if len(names) == 0 {
		if s.store.Has(ir.DefaultQuery) {
			return []string{ir.DefaultQuery}
		}
		return s.store.Names()
	}
	if slices.Contains(names, AllQueries) {
		return s.store.Names()
	}
	return slices.Clone(names)
}

// release drops the requested queries and everything they nest, except
// nested queries still used by a query that stays in the store.
func (s *Session) release(cat queryir.Catalog, names []string) {
	drop := nestedClosure(cat, names)

	var keep []string
	for _, name := range cat.Names() {
		if !drop[name] {
			keep = append(keep, name)
		}
	}
	for name := range nestedClosure(cat, keep) {
		delete(drop, name)
	}

	for name := range drop {
		s.store.Remove(name)
		s.taken[name] = true
	}
}

// nestedClosure returns names and every query they nest, transitively.
// Names absent from cat are skipped.
func nestedClosure(cat queryir.Catalog, names []string) map[string]bool {
	seen := map[string]bool{}
	stack := slices.Clone(names)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		q, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		seen[name] = true
		stack = append(stack, queryir.Dependencies(cat, q)...)
	}
	return seen
}

func (s *Session) reset() {
	for _, name := range s.store.Names() {
		s.taken[name] = true
	}
	s.store.Reset()
	s.err = nil
}

// nested checks that a "@name" reference names a query already in the store
// and returns the bare name. Other names are returned unchanged.
func (s *Session) nested(owner, name string) (string, error) {
	if len(name) == 0 || name[0] != '@' {
		return name, nil
	}
	name = name[1:]
	if !s.store.Has(name) {
		return name, ir.NewUnknownQueryError(owner, name)
	}
	return name, nil
}

// String describes the session for logs and debugging.
func (s *Session) String() string {
	return fmt.Sprintf("suql.Session{id=%s dialect=%s queries=%d}", s.id, s.Dialect(), s.store.Len())
}

// Error is the error type reported by sessions.
type Error = ir.Error

// IsConfiguration reports whether err is a malformed relationship
// declaration.
func IsConfiguration(err error) bool { return ir.IsConfiguration(err) }

// IsUnresolvedJoin reports whether err is a join between tables with no
// declared relationship.
func IsUnresolvedJoin(err error) bool { return ir.IsUnresolvedJoin(err) }

// IsUnknownQuery reports whether err is a reference to an absent query.
func IsUnknownQuery(err error) bool { return ir.IsUnknownQuery(err) }

// IsComposition reports whether err is cyclic query nesting.
func IsComposition(err error) bool { return ir.IsComposition(err) }
