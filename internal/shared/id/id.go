// Package id generates identifiers used to correlate tunnel activity in logs.
//
// IDs are prefixed ULIDs, e.g. "sock_01HZX3...". ULIDs sort by creation
// time, so log lines for sockets and requests line up chronologically.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SocketID identifies one tunneled WebSocket
type SocketID string

// RequestID identifies one tunneled HTTP exchange
type RequestID string

const (
	SocketPrefix  = "sock"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
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
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSocketID generates a new socket ID
func NewSocketID() SocketID {
	return SocketID(Default().GenerateWithPrefix(SocketPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id SocketID) String() string  { return string(id) }
func (id RequestID) String() string { return string(id) }

// Timestamp extracts the creation time from a prefixed or bare ULID
func Timestamp(id string) (time.Time, error) {
	if _, rest, ok := strings.Cut(id, "_"); ok {
		id = rest
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
