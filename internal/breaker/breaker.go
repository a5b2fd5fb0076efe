// Package breaker wraps sony/gobreaker, one circuit breaker per
// (provider, chain) pair, in the same construction style this repo family
// uses for its wire-protocol circuit breakers.
package breaker

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
)

// Registry lazily builds and caches one breaker per (provider, chain).
type Registry struct {
	mu       sync.Mutex
	breakers map[key]*gobreaker.CircuitBreaker

	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripRatio   float64
	tripMinReqs uint32
}

type key struct {
	provider provider.Kind
	chain    chain.ID
}

// Option configures a Registry's breaker settings.
type Option func(*Registry)

// WithTimeout sets how long a breaker stays open before probing again.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithTripThreshold sets the minimum request count and failure ratio that
// trips a breaker open within one interval window.
func WithTripThreshold(minRequests uint32, ratio float64) Option {
	return func(r *Registry) {
		r.tripMinReqs = minRequests
		r.tripRatio = ratio
	}
}

// NewRegistry returns a Registry with sensible defaults, overridable via
// opts: a 30s open timeout and tripping after at least 5 requests in a
// window see a failure ratio of 0.6 or more.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		breakers:    make(map[key]*gobreaker.CircuitBreaker),
		maxRequests: 1,
		interval:    time.Minute,
		timeout:     30 * time.Second,
		tripRatio:   0.6,
		tripMinReqs: 5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For returns the breaker for (p, c), creating it on first use.
func (r *Registry) For(p provider.Kind, c chain.ID) *gobreaker.CircuitBreaker {
	k := key{provider: p, chain: c}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[k]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(p) + "/" + string(c),
		MaxRequests: r.maxRequests,
		Interval:    r.interval,
		Timeout:     r.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.tripMinReqs {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= r.tripRatio
		},
	})
	r.breakers[k] = cb
	return cb
}

// Execute runs fn through the breaker for (p, c). Its result is discarded;
// callers that need a value should close over it instead, matching the
// Execute(func() (any, error)) shape used elsewhere in this repo.
func (r *Registry) Execute(p provider.Kind, c chain.ID, fn func() error) error {
	_, err := r.For(p, c).Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State returns the current breaker state for (p, c), for health reporting.
func (r *Registry) State(p provider.Kind, c chain.ID) gobreaker.State {
	return r.For(p, c).State()
}
