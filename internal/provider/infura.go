package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// InfuraAdapter forwards to Infura's project-scoped endpoints. Templates
// and the 429 rate-limit rule are grounded on original_source's
// providers/infura.rs.
type InfuraAdapter struct {
	projectID string
	client    *http.Client
	chains    catalog.Catalog
	wsChains  catalog.Catalog
}

// NewInfuraAdapter returns an adapter authenticated with projectID.
func NewInfuraAdapter(projectID string, timeout time.Duration, externalIP string) *InfuraAdapter {
	return &InfuraAdapter{
		projectID: projectID,
		client:    NewHTTPClient(timeout, externalIP),
		chains:    catalog.Infura,
		wsChains:  catalog.InfuraWS,
	}
}

func (a *InfuraAdapter) Kind() Kind { return Infura }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *InfuraAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *InfuraAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	label, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: Infura, ChainID: chainID}
	}
	url := fmt.Sprintf("https://%s.infura.io/v3/%s", label, a.projectID)
	return postJSONRPC(ctx, Infura, a.client, url, headers, body)
}

func (a *InfuraAdapter) IsRateLimited(resp *Response) bool {
	return resp.Status == http.StatusTooManyRequests
}

func (a *InfuraAdapter) UpstreamURL(chainID string) (string, bool) {
	e, ok := a.wsChains[chainID]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("wss://%s.infura.io/ws/v3/%s", e.Label, a.projectID), true
}
