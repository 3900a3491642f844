package engine

import (
	"log/slog"

	"github.com/PawelJastrzebski/quadratic-fork/internal/deps"
	"github.com/PawelJastrzebski/quadratic-fork/internal/formula"
	"github.com/PawelJastrzebski/quadratic-fork/internal/grid"
	"github.com/PawelJastrzebski/quadratic-fork/internal/host"
	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// Controller runs transactions against a grid.
//
// Thread-safety model: none. Every method must be called from one
// goroutine at a time; use Session to share a Controller.
//
// INVARIANTS:
//   - At most one transaction runs synchronously (the in-flight slot)
//   - Only User transactions clear the redo stack
//   - Multiplayer transactions never touch undo or redo
//   - Dependency edges reflect the last successful run of each code cell
type Controller struct {
	grid      *grid.Grid
	deps      *deps.Graph
	host      host.Dispatcher
	evaluator formula.Evaluator
	ids       IDGenerator
	clock     *Clock
	logger    *slog.Logger
	maxSteps  int

	inFlight       *PendingTransaction
	suspended      map[string]*PendingTransaction
	suspendedOrder []string

	undoStack []operation.Transaction
	redoStack []operation.Transaction
	unsaved   []SyncEntry
}

// SyncEntry is a committed transaction with its inverse, recorded for
// persistence and peers.
type SyncEntry struct {
	Forward operation.Transaction
	Reverse operation.Transaction
}

// Option configures a Controller.
type Option func(*Controller)

// WithHost sets the interpreter host that runs Python and JavaScript cells.
// Default: host.Unavailable, which records a host error on every such cell.
func WithHost(d host.Dispatcher) Option {
	return func(c *Controller) {
		c.host = d
	}
}

// WithEvaluator replaces the formula evaluator.
func WithEvaluator(e formula.Evaluator) Option {
	return func(c *Controller) {
		c.evaluator = e
	}
}

// WithIDGenerator sets the transaction id generator.
// Use NewFixedGenerator in tests for stable ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// WithMaxSteps sets the evaluation quota per transaction.
//
// Default: 100000 (DefaultMaxSteps).
// Use WithMaxSteps(10) for testing quota enforcement.
func WithMaxSteps(maxSteps int) Option {
	return func(c *Controller) {
		c.maxSteps = maxSteps
	}
}

// WithClock sets the logical clock used for LastModified stamps.
func WithClock(clock *Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a Controller over g. A nil grid gets one empty sheet.
//
// Code cells already present in g contribute their recorded dependency sets
// to the graph, so a restored grid recomputes correctly.
func New(g *grid.Grid, opts ...Option) *Controller {
	if g == nil {
		g = grid.NewWithSheet()
	}
	c := &Controller{
		grid:      g,
		deps:      deps.New(),
		host:      host.Unavailable{},
		evaluator: formula.NewEvaluator(),
		ids:       UUIDv7Generator{},
		clock:     NewClock(),
		logger:    slog.Default(),
		maxSteps:  DefaultMaxSteps,
		suspended: make(map[string]*PendingTransaction),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, sheet := range g.Sheets() {
		for _, entry := range sheet.CodeCells() {
			c.deps.Update(sheet.CellRef(entry.Pos), nil, entry.Cell.CellsAccessed())
			c.clock.Observe(entry.Cell.LastModified)
		}
	}
	return c
}

// Grid returns the grid. Callers must not mutate it directly.
func (c *Controller) Grid() *grid.Grid {
	return c.grid
}

// Dependents returns the code cells that last read ref.
func (c *Controller) Dependents(ref ir.CellRef) []ir.CellRef {
	return c.deps.Dependents(ref)
}

// HasUndo reports whether Undo would do anything.
func (c *Controller) HasUndo() bool {
	return len(c.undoStack) > 0
}

// HasRedo reports whether Redo would do anything.
func (c *Controller) HasRedo() bool {
	return len(c.redoStack) > 0
}

// Suspended returns the ids of parked transactions, oldest first.
func (c *Controller) Suspended() []string {
	out := make([]string, len(c.suspendedOrder))
	copy(out, c.suspendedOrder)
	return out
}

// Pending returns a parked transaction.
func (c *Controller) Pending(id string) (*PendingTransaction, bool) {
	pt, ok := c.suspended[id]
	return pt, ok
}

// TakeUnsaved returns the committed (forward, reverse) pairs recorded since
// the last call and clears the list.
func (c *Controller) TakeUnsaved() []SyncEntry {
	out := c.unsaved
	c.unsaved = nil
	return out
}

// HasUnsaved reports whether committed transactions await a Flush.
func (c *Controller) HasUnsaved() bool {
	return len(c.unsaved) > 0
}

func (c *Controller) park(pt *PendingTransaction) {
	if _, ok := c.suspended[pt.ID]; !ok {
		c.suspendedOrder = append(c.suspendedOrder, pt.ID)
	}
	c.suspended[pt.ID] = pt
}

// unpark removes a transaction from the registry.
func (c *Controller) unpark(id string) (*PendingTransaction, bool) {
	pt, ok := c.suspended[id]
	if !ok {
		return nil, false
	}
	delete(c.suspended, id)
	for i, parked := range c.suspendedOrder {
		if parked == id {
			c.suspendedOrder = append(c.suspendedOrder[:i], c.suspendedOrder[i+1:]...)
			break
		}
	}
	return pt, true
}

// enter claims the in-flight slot for pt.
func (c *Controller) enter(pt *PendingTransaction) {
	if c.inFlight != nil {
		panic(NewInvariantError(pt.ID, "transaction started while "+c.inFlight.ID+" is in flight"))
	}
	c.inFlight = pt
}

func (c *Controller) leave() {
	c.inFlight = nil
}
