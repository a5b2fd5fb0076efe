// Package selector implements per-request weighted-random provider
// selection with health-aware exclusion. Selection reads
// live weight.Cell values at draw time; it never caches or snapshots them
// across requests.
package selector

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/weight"
)

// ErrNoProviderAvailable is returned when every candidate for a chain is
// either unregistered, weighted at zero, or excluded.
var ErrNoProviderAvailable = errors.New("selector: no provider available for chain")

// Exclusion is a set of provider kinds to skip for one draw, built up
// across retry attempts within a single request.
type Exclusion map[provider.Kind]struct{}

// NewExclusion returns an empty exclusion set.
func NewExclusion() Exclusion { return make(Exclusion) }

// Add marks k excluded.
func (e Exclusion) Add(k provider.Kind) { e[k] = struct{}{} }

// Has reports whether k is excluded.
func (e Exclusion) Has(k provider.Kind) bool {
	_, ok := e[k]
	return ok
}

// Selector draws a provider for a chain from a weight.Table, weighted by
// each candidate's current live weight, excluding any kind in excl and
// any cell currently at zero weight.
type Selector struct {
	table *weight.Table
}

// New returns a Selector drawing from table.
func New(table *weight.Table) *Selector {
	return &Selector{table: table}
}

// Pick draws one provider.Kind for c, honoring excl. Candidates with a
// current weight of zero are treated as unhealthy and never drawn, even
// if not explicitly excluded: a weight of zero takes a provider out of
// rotation without removing its catalog entry.
func (s *Selector) Pick(c chain.ID, excl Exclusion) (provider.Kind, error) {
	entries := s.table.Entries(c)
	candidates := make([]weight.Entry, 0, len(entries))
	total := uint64(0)
	for _, e := range entries {
		if excl.Has(e.Provider) {
			continue
		}
		w := uint64(e.Weight.Load())
		if w == 0 {
			continue
		}
		candidates = append(candidates, e)
		total += w
	}
	if len(candidates) == 0 || total == 0 {
		return "", ErrNoProviderAvailable
	}

	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(total))
	if err != nil {
		return "", err
	}
	draw := n.Uint64()

	var cursor uint64
	for _, e := range candidates {
		cursor += uint64(e.Weight.Load())
		if draw < cursor {
			return e.Provider, nil
		}
	}
	// Unreachable unless a cell changed between the two Load calls above;
	// fall back to the last candidate rather than erroring.
	return candidates[len(candidates)-1].Provider, nil
}
