// Package chain defines the CAIP-2 chain identifier type shared across the
// routing core. It is deliberately thin: chain.ID is an opaque, normalized
// string key, never parsed or interpreted beyond case-folding.
package chain

import "strings"

// ID is a CAIP-2 chain identifier, e.g. "eip155:1" or "solana-mainnet".
// It is treated as an uninterpreted key everywhere in the core.
type ID string

// Normalize lowercases and trims a raw chainId query parameter.
func Normalize(raw string) ID {
	return ID(strings.ToLower(strings.TrimSpace(raw)))
}

func (c ID) String() string { return string(c) }
