package id

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceMonotonic(t *testing.T) {
	seq := NewSequence(TerminalPrefix)

	first, n1 := seq.Next()
	second, n2 := seq.Next()

	assert.Equal(t, "term-1", first)
	assert.Equal(t, "term-2", second)
	assert.Equal(t, uint64(1), n1)
	assert.Equal(t, uint64(2), n2)
}

func TestSequenceConcurrentUnique(t *testing.T) {
	seq := NewSequence(TerminalPrefix)

	const goroutines = 50
	const perGoroutine = 40

	var wg sync.WaitGroup
	out := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, _ := seq.Next()
				out <- id
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool)
	for id := range out {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"term-1", 1},
		{"term-42", 42},
		{"term-", 0},
		{"term", 0},
		{"term-x", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Ordinal(tt.in))
		})
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{InstancePrefix, ConnPrefix} {
		got := gen.GenerateWithPrefix(prefix)
		parts := strings.Split(got, "_")
		require.Len(t, parts, 2)
		assert.Equal(t, prefix, parts[0])
		assert.True(t, IsValid(parts[1]), "ULID part should be valid: %s", parts[1])
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewInstanceID().String(), "inst_"))
	assert.True(t, strings.HasPrefix(NewConnID().String(), "conn_"))
	assert.NotEqual(t, NewConnID(), NewConnID())
}
