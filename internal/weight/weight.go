// Package weight holds the live, mutable selection weight for every
// (provider, chain) pair the gateway routes. Cells are updated in place by
// internal/weightupdater and read in place by internal/selector; a weight
// is never copied out of the table and replaced, only mutated through its
// own atomic. Weights are shared by reference, not snapshotted per
// request.
package weight

import (
	"sync"
	"sync/atomic"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
)

// Cell is a single provider's live weight for one chain. Its zero value
// reports a weight of zero; prefer constructing through NewCell.
type Cell struct {
	value atomic.Uint32
}

// NewCell returns a cell initialized to v.
func NewCell(v uint32) *Cell {
	c := &Cell{}
	c.value.Store(v)
	return c
}

// Load returns the current weight.
func (c *Cell) Load() uint32 { return c.value.Load() }

// Store sets the weight unconditionally. Called only by the weight updater.
func (c *Cell) Store(v uint32) { c.value.Store(v) }

// Entry pairs an immutable provider kind and chain with its live cell.
type Entry struct {
	Provider provider.Kind
	Chain    chain.ID
	Weight   *Cell
}

// Table is the set of live entries for one traffic class (HTTP or WS). It
// is built once at startup by Register calls and never adds or removes
// entries afterward; only cell values move. The updater never adds or
// removes (chain, provider) pairs.
type Table struct {
	mu      sync.RWMutex
	byChain map[chain.ID][]Entry
}

// NewTable returns an empty table ready for Register calls.
func NewTable() *Table {
	return &Table{byChain: make(map[chain.ID][]Entry)}
}

// Register adds an entry for the given provider/chain with an initial
// weight. It is only safe to call during startup wiring, before any
// concurrent Entries/Chains readers exist.
func (t *Table) Register(p provider.Kind, c chain.ID, initial uint32) *Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	cell := NewCell(initial)
	t.byChain[c] = append(t.byChain[c], Entry{Provider: p, Chain: c, Weight: cell})
	return cell
}

// Entries returns the registered entries for a chain. The returned slice
// shares Cell pointers with the table; callers must not mutate the slice
// itself, but may Load/Store through the cells.
func (t *Table) Entries(c chain.ID) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.byChain[c]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Chains returns every chain with at least one registered entry.
func (t *Table) Chains() []chain.ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]chain.ID, 0, len(t.byChain))
	for c := range t.byChain {
		out = append(out, c)
	}
	return out
}

// Find returns the cell registered for (p, c), if any. Used by the weight
// updater to look up the entry it just scored.
func (t *Table) Find(p provider.Kind, c chain.ID) (*Cell, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.byChain[c] {
		if e.Provider == p {
			return e.Weight, true
		}
	}
	return nil, false
}
