// Package dispatcher implements the per-request state machine that
// selects a provider, forwards the call, classifies the outcome, and
// retries against a different provider on failure or throttling.
package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/breaker"
	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/gatewayerr"
	"github.com/walletgate/rpc-gateway/internal/metrics"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/selector"
)

// Dispatcher wires together the selector, the provider repository, a
// circuit breaker registry, and a metrics sink into the Proxy operation.
type Dispatcher struct {
	selector    *selector.Selector
	repo        *provider.Repository
	breakers    *breaker.Registry
	metrics     metrics.Sink
	log         *zap.Logger
	maxAttempts int
}

// New returns a Dispatcher. maxAttempts must be at least 1; the caller is
// expected to bound it to the number of distinct providers per chain.
func New(sel *selector.Selector, repo *provider.Repository, breakers *breaker.Registry, sink metrics.Sink, log *zap.Logger, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Dispatcher{
		selector:    sel,
		repo:        repo,
		breakers:    breakers,
		metrics:     sink,
		log:         log,
		maxAttempts: maxAttempts,
	}
}

// Request is the normalized inbound call the Dispatcher forwards.
type Request struct {
	ChainID chain.ID
	Method  string
	Headers http.Header
	Body    []byte
}

// Result is the outcome of a successful Proxy call: the upstream response
// and which provider ultimately served it.
type Result struct {
	Response *provider.Response
	Provider provider.Kind
	Attempts int
}

// Proxy runs the select → forward → classify → retry loop and returns the
// first acceptable upstream response, or a *gatewayerr.Error describing
// why no response could be returned.
func (d *Dispatcher) Proxy(ctx context.Context, req Request) (*Result, error) {
	tried := selector.NewExclusion()
	attempt := 0

	for {
		kind, err := d.selector.Pick(req.ChainID, tried)
		if errors.Is(err, selector.ErrNoProviderAvailable) {
			if attempt == 0 {
				return nil, &gatewayerr.Error{Kind: gatewayerr.ChainNotSupported, ChainID: string(req.ChainID), Attempts: attempt}
			}
			return nil, &gatewayerr.Error{Kind: gatewayerr.AllProvidersThrottled, ChainID: string(req.ChainID), Attempts: attempt}
		}
		if err != nil {
			return nil, &gatewayerr.Error{Kind: gatewayerr.AllProvidersFailed, ChainID: string(req.ChainID), Attempts: attempt, Err: err}
		}

		resp, callErr := d.call(ctx, kind, req)
		var unsupported *provider.ErrChainNotSupported
		if errors.As(callErr, &unsupported) {
			return nil, &gatewayerr.Error{Kind: gatewayerr.ChainNotSupported, ChainID: string(req.ChainID), Attempts: attempt + 1, Err: callErr}
		}
		if callErr != nil {
			tried.Add(kind)
			attempt++
			d.log.Debug("dispatcher: transport failure",
				zap.String("provider", string(kind)), zap.String("chain", string(req.ChainID)),
				zap.Int("attempt", attempt), zap.Stringer("breaker_state", d.breakers.State(kind, req.ChainID)),
				zap.Error(callErr))
			if attempt < d.maxAttempts {
				continue
			}
			return nil, &gatewayerr.Error{Kind: gatewayerr.AllProvidersFailed, ChainID: string(req.ChainID), Attempts: attempt, Err: callErr}
		}

		adapter, _ := d.repo.HTTP(kind)
		if adapter.IsRateLimited(resp) {
			d.metrics.AddRateLimitedCall(string(kind), string(req.ChainID))
			d.metrics.AddProviderFinishedCall(string(kind), string(req.ChainID))
			tried.Add(kind)
			attempt++
			if attempt < d.maxAttempts {
				continue
			}
			return nil, &gatewayerr.Error{Kind: gatewayerr.AllProvidersThrottled, ChainID: string(req.ChainID), Attempts: attempt}
		}

		d.metrics.AddProviderStatusCode(string(kind), string(req.ChainID), resp.Status)
		d.metrics.AddProviderFinishedCall(string(kind), string(req.ChainID))
		return &Result{Response: resp, Provider: kind, Attempts: attempt + 1}, nil
	}
}

// errBreakerRateLimited marks a rate-limited response as a failure for the
// circuit breaker; call still hands the response back to Proxy.
var errBreakerRateLimited = errors.New("dispatcher: rate-limited response")

// call invokes the adapter through its circuit breaker, short-circuiting
// to a transport-shaped failure when the breaker is already open, the
// same as if the network call itself had failed. Transport failures and
// rate-limited responses both count as failures for the breaker.
func (d *Dispatcher) call(ctx context.Context, kind provider.Kind, req Request) (*provider.Response, error) {
	adapter, ok := d.repo.HTTP(kind)
	if !ok {
		return nil, &provider.TransportError{Kind: kind, Err: errors.New("no HTTP adapter registered")}
	}

	var resp *provider.Response
	start := time.Now()
	err := d.breakers.Execute(kind, req.ChainID, func() error {
		var callErr error
		resp, callErr = adapter.HTTPProxy(ctx, req.Method, string(req.ChainID), req.Headers, req.Body)
		if callErr == nil && adapter.IsRateLimited(resp) {
			return errBreakerRateLimited
		}
		return callErr
	})
	d.metrics.AddProviderLatency(string(kind), string(req.ChainID), time.Since(start).Seconds())
	if err != nil && !errors.Is(err, errBreakerRateLimited) {
		return nil, err
	}
	return resp, nil
}
