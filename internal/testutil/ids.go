package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates request ids "<prefix>-0001", "<prefix>-0002", ...
//
// This enables deterministic log output and golden trace comparison.
// The same scenario with the same SequentialIDs produces identical ids.
//
// Thread-safety: Generate is safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialIDs creates a generator with the given prefix.
//
// If prefix is empty, ids use "req".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.RequestIDGenerator interface.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%04d", g.prefix, g.next)
}
