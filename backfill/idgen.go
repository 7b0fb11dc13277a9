package backfill

import (
	"bytes"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ID is a 128-bit sortable identifier: the upper 48 bits hold a millisecond
// timestamp, the next 48 bits a per-millisecond random component, and the
// low 32 bits a counter. Numeric (big-endian) ordering of IDs from one
// generator within one millisecond is non-decreasing.
type ID [16]byte

// String returns the id as 32 hex characters.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Compare orders two ids numerically.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Generator produces monotonic-ish IDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	millis  int64
	seed    [6]byte
	counter uint32

	// now is swapped in tests.
	now func() time.Time
}

// NewGenerator builds a Generator on the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Next returns the next identifier. Within one millisecond the counter
// advances; counter overflow forces a timestamp bump so ordering holds even
// past 2^32 ids per millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UnixMilli()
	if now < g.millis {
		// Clock went backwards; keep the sequence monotonic.
		now = g.millis
	}

	if now == g.millis {
		g.counter++
		if g.counter == 0 {
			g.millis++
			g.reseed()
		}
	} else {
		g.millis = now
		g.counter = 0
		g.reseed()
	}

	var id ID
	id[0] = byte(g.millis >> 40)
	id[1] = byte(g.millis >> 32)
	id[2] = byte(g.millis >> 24)
	id[3] = byte(g.millis >> 16)
	id[4] = byte(g.millis >> 8)
	id[5] = byte(g.millis)
	copy(id[6:12], g.seed[:])
	binary.BigEndian.PutUint32(id[12:], g.counter)
	return id
}

// NextUUID returns the next identifier stamped with UUID version 7 and
// RFC 4122 variant bits.
func (g *Generator) NextUUID() uuid.UUID {
	id := g.Next()
	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return uuid.UUID(id)
}

func (g *Generator) reseed() {
	// crypto/rand never fails on supported platforms; a zero seed is still
	// a valid (merely less unique) id component.
	_, _ = crand.Read(g.seed[:])
	// Keep the stamped version/variant bits from disturbing ordering: they
	// are fixed per millisecond anyway, but normalizing here makes Next and
	// NextUUID agree byte-for-byte.
	g.seed[0] = (g.seed[0] & 0x0f) | 0x70
	g.seed[2] = (g.seed[2] & 0x3f) | 0x80
}
