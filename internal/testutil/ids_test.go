package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("compile-123")

	assert.Equal(t, "compile-123", gen.Generate())
	assert.Equal(t, "compile-123", gen.Generate())
}

func TestFixedIDGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-compilation", NewFixedIDGenerator("").Generate())
}

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator("c")

	assert.Equal(t, "c-1", gen.Generate())
	assert.Equal(t, "c-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "c-1", gen.Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator("c")
	const goroutines = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines)
}
