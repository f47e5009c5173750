package tree

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces node ids. Ids returned by one generator never repeat.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator appends a random v4 UUID to the prefix.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// CounterGenerator appends a monotonically increasing counter to the prefix.
// Ids are only unique per generator, so one generator must serve every forest
// it creates nodes in.
type CounterGenerator struct {
	mu   sync.Mutex
	next uint64
}

func NewCounterGenerator(start uint64) *CounterGenerator {
	return &CounterGenerator{next: start}
}

func (g *CounterGenerator) NewID(prefix string) string {
	g.mu.Lock()
	n := g.next
	g.next++
	g.mu.Unlock()
	return prefix + "-" + strconv.FormatUint(n, 10)
}
