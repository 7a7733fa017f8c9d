package store

import (
	"slices"
	"sync"

	"github.com/roach88/suql/internal/ir"
)

// Store holds the named queries of one session and their rendered cache.
type Store struct {
	mu       sync.Mutex
	names    []string
	queries  map[string]*ir.Query
	rendered map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		queries:  make(map[string]*ir.Query),
		rendered: make(map[string]string),
	}
}

// Open returns the query called name, creating an empty select if it does not
// exist yet. Query names are unique within the store.
func (s *Store) Open(name string) *ir.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queries[name]; ok {
		return q
	}
	q := ir.NewSelect(name)
	s.queries[name] = q
	s.names = append(s.names, name)
	return q
}

// Lookup returns the query called name.
func (s *Store) Lookup(name string) (*ir.Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[name]
	return q, ok
}

// Has reports whether a query called name exists.
func (s *Store) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Names returns query names in the order they were added.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Len returns the number of queries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Snapshot returns a deep copy of every query, safe to render without
// touching the store.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &Snapshot{
		names:   append([]string(nil), s.names...),
		queries: make(map[string]*ir.Query, len(s.queries)),
	}
	for name, q := range s.queries {
		snap.queries[name] = q.Clone()
	}
	return snap
}

// Put caches the composed SQL for name.
func (s *Store) Put(name, sql string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered[name] = sql
}

// Take returns the cached SQL for names and removes exactly those entries.
// Names with no cached entry are absent from the result.
func (s *Store) Take(names ...string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(names))
	for _, name := range names {
		if sql, ok := s.rendered[name]; ok {
			out[name] = sql
			delete(s.rendered, name)
		}
	}
	return out
}

// Remove drops the named queries and any cached SQL for them. Names not in
// the store are ignored.
func (s *Store) Remove(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, ok := s.queries[name]; !ok {
			continue
		}
		delete(s.queries, name)
		delete(s.rendered, name)
		s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
	}
}

// Reset drops every query. Cached SQL that was not taken is dropped too.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = nil
	s.queries = make(map[string]*ir.Query)
	s.rendered = make(map[string]string)
}

// Snapshot is an immutable copy of the store's queries.
type Snapshot struct {
	names   []string
	queries map[string]*ir.Query
}

// Names returns query names in store order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Lookup returns the query called name.
func (s *Snapshot) Lookup(name string) (*ir.Query, bool) {
	q, ok := s.queries[name]
	return q, ok
}
