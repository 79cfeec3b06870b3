// Package credential issues the opaque secrets that authenticate telemetry
// uploads. Each device receives exactly one credential at activation time;
// the credential is never rotated and never shown again in full.
package credential

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

// rawLen is the number of random bytes behind each credential. 48 bytes
// encode to exactly 64 URL-safe characters with no padding.
const rawLen = 48

// Length is the character length of every generated credential.
const Length = 64

// Generator produces device credentials.
//
// Production code uses SecureGenerator; tests use FixedGenerator to make
// activation flows deterministic.
type Generator interface {
	Generate() (string, error)
}

// SecureGenerator draws credentials from crypto/rand.
//
// Thread-safety: SecureGenerator is stateless and safe for concurrent use.
type SecureGenerator struct{}

// Generate returns a fresh 64-character URL-safe credential.
func (SecureGenerator) Generate() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FixedGenerator returns predetermined credentials for testing.
//
// This lets tests assert exact credentials in activation responses and
// seed stores with known values.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu          sync.Mutex
	credentials []string
	idx         int
}

// NewFixedGenerator creates a generator that returns credentials in order.
//
// Example:
//
//	gen := NewFixedGenerator("cred-1", "cred-2")
//	gen.Generate() // "cred-1", nil
//	gen.Generate() // "cred-2", nil
//	gen.Generate() // panic: all credentials exhausted
func NewFixedGenerator(credentials ...string) *FixedGenerator {
	return &FixedGenerator{
		credentials: credentials,
		idx:         0,
	}
}

// Generate returns the next predetermined credential.
//
// Panics if all credentials have been consumed. This is a fail-fast approach
// to catch test misconfiguration (test activated more devices than expected).
func (g *FixedGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.credentials) {
		panic("FixedGenerator: all credentials exhausted")
	}
	cred := g.credentials[g.idx]
	g.idx++
	return cred, nil
}
