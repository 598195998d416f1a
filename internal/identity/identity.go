// Package identity produces collision-resistant notification identifiers.
package identity

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"
	"time"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generator builds notification ids from a millisecond timestamp, an
// in-process counter, and a short random suffix. The counter starts at zero
// on construction and is never persisted, so ids are unique within a single
// process lifetime only. Ids from distinct processes rely on the timestamp
// and suffix to avoid colliding.
type Generator struct {
	prefix  string
	counter atomic.Uint64
	now     func() time.Time
}

// New creates a Generator with the given id prefix.
func New(prefix string) *Generator {
	return &Generator{prefix: prefix, now: time.Now}
}

// NextID returns a fresh identifier. The counter disambiguates calls within
// the same millisecond; the suffix guards against counter resets.
func (g *Generator) NextID() string {
	n := g.counter.Add(1) - 1
	return fmt.Sprintf("%s_%d_%d_%s", g.prefix, g.now().UnixMilli(), n, randomSuffix(6))
}

func randomSuffix(length int) string {
	buf := make([]byte, length)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
