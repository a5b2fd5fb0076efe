package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// BinanceAdapter forwards to a fixed full URL per chain rather than a
// templated label; Binance's endpoints don't follow the {label}.host
// shape the other providers use.
type BinanceAdapter struct {
	apiKey string
	client *http.Client
	chains catalog.Catalog
}

// NewBinanceAdapter returns an adapter. apiKey may be empty; Binance's
// public endpoints accept unauthenticated calls at a lower rate.
func NewBinanceAdapter(apiKey string, timeout time.Duration, externalIP string) *BinanceAdapter {
	return &BinanceAdapter{
		apiKey: apiKey,
		client: NewHTTPClient(timeout, externalIP),
		chains: catalog.Binance,
	}
}

func (a *BinanceAdapter) Kind() Kind { return Binance }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *BinanceAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *BinanceAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	url, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: Binance, ChainID: chainID}
	}
	if a.apiKey == "" {
		return postJSONRPC(ctx, Binance, a.client, url, headers, body)
	}
	extra := http.Header{}
	extra.Set("X-MBX-APIKEY", a.apiKey)
	return postJSONRPC(ctx, Binance, a.client, url, headers, body, extra)
}

// IsRateLimited treats both 403 (Binance's observed throttle status,
// original_source's providers/binance.rs) and 429 as rate-limited.
func (a *BinanceAdapter) IsRateLimited(resp *Response) bool {
	return resp.Status == http.StatusForbidden || resp.Status == http.StatusTooManyRequests
}
