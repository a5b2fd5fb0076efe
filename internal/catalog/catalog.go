// Package catalog is the static, per-provider declaration of which CAIP-2
// chain each upstream serves, at what label and initial priority.
// Tables are loaded once at startup and never mutated afterwards; only
// the weight.Table's live cells change.
package catalog

import (
	"github.com/walletgate/rpc-gateway/internal/provider"
)

// Entry is a single (chainID -> upstreamLabel, initialPriority) mapping.
type Entry struct {
	Label    string
	Priority provider.Priority
}

// Catalog is a provider's full chain map.
type Catalog map[string]Entry

// Infura mirrors original_source's Infura chain map: the project ID is
// substituted into the adapter's URL template, not the catalog.
var Infura = Catalog{
	"eip155:1":     {Label: "mainnet", Priority: provider.PriorityHigh},
	"eip155:5":     {Label: "goerli", Priority: provider.PriorityNormal},
	"eip155:10":    {Label: "optimism-mainnet", Priority: provider.PriorityNormal},
	"eip155:137":   {Label: "polygon-mainnet", Priority: provider.PriorityHigh},
	"eip155:42161": {Label: "arbitrum-mainnet", Priority: provider.PriorityNormal},
	"eip155:43114": {Label: "avalanche-mainnet", Priority: provider.PriorityNormal},
}

// InfuraWS is the subset of Infura's chains reachable over wss://.
var InfuraWS = Catalog{
	"eip155:1":   {Label: "mainnet", Priority: provider.PriorityHigh},
	"eip155:137": {Label: "polygon-mainnet", Priority: provider.PriorityHigh},
}

// Pokt mirrors original_source's env/pokt.rs default_supported_chains,
// including the Ethereum mainnet entry parked at Disabled pending a known
// upstream issue.
var Pokt = Catalog{
	"solana:4sgjmw1sunhzsxgspuhpqldx6wiyjntz": {Label: "solana-mainnet", Priority: provider.PriorityNormal},
	"eip155:43114":                            {Label: "avax-mainnet", Priority: provider.PriorityNormal},
	"eip155:100":                              {Label: "poa-xdai", Priority: provider.PriorityNormal},
	"eip155:56":                               {Label: "bsc-mainnet", Priority: provider.PriorityHigh},
	"eip155:1":                                {Label: "mainnet", Priority: provider.PriorityDisabled},
	"eip155:5":                                {Label: "goerli", Priority: provider.PriorityNormal},
	"eip155:10":                               {Label: "optimism-mainnet", Priority: provider.PriorityNormal},
	"eip155:42161":                            {Label: "arbitrum-one", Priority: provider.PriorityNormal},
	"eip155:137":                              {Label: "poly-mainnet", Priority: provider.PriorityHigh},
	"eip155:1101":                             {Label: "polygon-zkevm-mainnet", Priority: provider.PriorityHigh},
	"eip155:42220":                            {Label: "celo-mainnet", Priority: provider.PriorityNormal},
}

// Binance stores a complete URL per chain rather than a templated label,
// since Binance's provider doesn't follow the {label}.host template the
// others do.
var Binance = Catalog{
	"eip155:56":  {Label: "https://bsc-dataseed.binance.org", Priority: provider.PriorityHigh},
	"eip155:1":   {Label: "https://eth.bscnodereal.io", Priority: provider.PriorityLow},
	"eip155:204": {Label: "https://opbnb-mainnet-rpc.bnbchain.org", Priority: provider.PriorityNormal},
}

// Publicnode mirrors original_source's env/publicnode.rs.
var Publicnode = Catalog{
	"eip155:1":     {Label: "ethereum", Priority: provider.PriorityHigh},
	"eip155:17000": {Label: "ethereum-holesky-rpc", Priority: provider.PriorityHigh},
	"eip155:8453":  {Label: "base", Priority: provider.PriorityHigh},
	"eip155:56":    {Label: "bsc", Priority: provider.PriorityHigh},
	"eip155:137":   {Label: "polygon-bor", Priority: provider.PriorityNormal},
	"solana-mainnet": {Label: "solana", Priority: provider.PriorityNormal},
}

// PublicnodeWS is the subset of Publicnode's chains reachable over wss://.
var PublicnodeWS = Catalog{
	"eip155:1":  {Label: "ethereum", Priority: provider.PriorityHigh},
	"eip155:56": {Label: "bsc", Priority: provider.PriorityNormal},
}

// ZKSync serves only its own L2.
var ZKSync = Catalog{
	"eip155:324": {Label: "mainnet", Priority: provider.PriorityHigh},
	"eip155:280": {Label: "testnet", Priority: provider.PriorityLow},
}

// Omniatech mirrors original_source's env/omnia.rs.
var Omniatech = Catalog{
	"eip155:1":              {Label: "eth", Priority: provider.PriorityLow},
	"eip155:56":             {Label: "bsc", Priority: provider.PriorityLow},
	"eip155:137":            {Label: "matic", Priority: provider.PriorityLow},
	"near":                  {Label: "near", Priority: provider.PriorityNormal},
	"eip155:1313161554":     {Label: "aurora", Priority: provider.PriorityNormal},
	"eip155:10":             {Label: "op", Priority: provider.PriorityNormal},
}
