package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// PublicnodeAdapter forwards to Publicnode's free, keyless endpoints.
type PublicnodeAdapter struct {
	client   *http.Client
	chains   catalog.Catalog
	wsChains catalog.Catalog
}

// NewPublicnodeAdapter returns an adapter. Publicnode requires no key.
func NewPublicnodeAdapter(timeout time.Duration, externalIP string) *PublicnodeAdapter {
	return &PublicnodeAdapter{
		client:   NewHTTPClient(timeout, externalIP),
		chains:   catalog.Publicnode,
		wsChains: catalog.PublicnodeWS,
	}
}

func (a *PublicnodeAdapter) Kind() Kind { return Publicnode }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *PublicnodeAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *PublicnodeAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	label, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: Publicnode, ChainID: chainID}
	}
	url := fmt.Sprintf("https://%s.publicnode.com", label)
	return postJSONRPC(ctx, Publicnode, a.client, url, headers, body)
}

func (a *PublicnodeAdapter) IsRateLimited(resp *Response) bool {
	return resp.Status == http.StatusTooManyRequests
}

func (a *PublicnodeAdapter) UpstreamURL(chainID string) (string, bool) {
	e, ok := a.wsChains[chainID]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("wss://%s.publicnode.com", e.Label), true
}
