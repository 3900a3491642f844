package testutil

import (
	"fmt"
	"sync"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... and never runs
// out. It satisfies engine.IDGenerator, so a scenario that starts a
// transaction on every step gets ids it can name in later steps.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "tx".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Issued returns how many ids were handed out.
func (g *SequentialIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// SheetID returns the fixed id of the n-th (1-based) sheet of a test grid.
func SheetID(n int) ir.SheetID {
	return ir.SheetID(fmt.Sprintf("sheet-%d", n))
}
