package testutil

import "sync"

// DefaultSessionID is returned by a FixedIDGenerator created without ids.
const DefaultSessionID = "test-session-default"

// FixedIDGenerator returns predetermined session identifiers.
//
// Identifiers are returned in order; once they are used up the last one is
// repeated. This keeps log output and golden snapshots byte-identical across
// runs.
//
// Thread-safety: Generate is safe for concurrent use.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
// With no ids, Generate returns DefaultSessionID.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	if len(ids) == 0 {
		ids = []string{DefaultSessionID}
	}
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next identifier.
//
// Implements suql.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
