package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same compilation ID every time.
//
// Golden snapshots leave the ID out, but logs and CLI output include it;
// a fixed ID keeps those byte-identical between runs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id. An empty id
// becomes "test-compilation".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-compilation"
	}
	return &FixedIDGenerator{id: id}
}

// Generate implements compiler.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequentialIDGenerator returns "<prefix>-1", "<prefix>-2", ... so that
// tests compiling several times can tell the results apart.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDGenerator creates a generator starting at 1.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate implements compiler.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset restarts the sequence. After Reset the next ID ends in 1.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
