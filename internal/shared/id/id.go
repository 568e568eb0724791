// Package id provides centralized ID generation for the backend.
//
// Two families of identifiers live here:
//   - Terminal IDs: short, human readable, monotonic (term-1, term-2, ...).
//     A Sequence never hands out the same value twice for its lifetime, so
//     an id that was destroyed can never be confused with a new session.
//   - ULIDs: lexicographically sortable, used for store instances and
//     websocket connections (prefixed: inst_*, conn_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// InstanceID identifies one running session store
type InstanceID string

// ConnID identifies a websocket connection
type ConnID string

const (
	TerminalPrefix = "term"
	InstancePrefix = "inst"
	ConnPrefix     = "conn"
)

func (id InstanceID) String() string { return string(id) }
func (id ConnID) String() string     { return string(id) }

// ============================================================================
// Terminal Sequence
// ============================================================================

// Sequence hands out monotonically increasing prefixed ids.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

// NewSequence creates a sequence whose first id is "<prefix>-1".
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next id and its ordinal.
func (s *Sequence) Next() (string, uint64) {
	n := s.next.Add(1)
	return fmt.Sprintf("%s-%d", s.prefix, n), n
}

// Ordinal extracts N from "<prefix>-N". Returns 0 when id is not in that form.
func Ordinal(id string) uint64 {
	i := strings.LastIndexByte(id, '-')
	if i < 0 || i == len(id)-1 {
		return 0
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return prefix + "_" + g.Generate().String()
}

// NewInstanceID generates a new store instance ID
func NewInstanceID() InstanceID {
	return InstanceID(Default().GenerateWithPrefix(InstancePrefix))
}

// NewConnID generates a new connection ID
func NewConnID() ConnID {
	return ConnID(Default().GenerateWithPrefix(ConnPrefix))
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}
