package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// OmniatechAdapter forwards to Omniatech's (formerly Omnia) BlastAPI-style
// templated endpoints, grounded on original_source's env/omnia.rs.
type OmniatechAdapter struct {
	apiKey string
	client *http.Client
	chains catalog.Catalog
}

// NewOmniatechAdapter returns an adapter.
func NewOmniatechAdapter(apiKey string, timeout time.Duration, externalIP string) *OmniatechAdapter {
	return &OmniatechAdapter{
		apiKey: apiKey,
		client: NewHTTPClient(timeout, externalIP),
		chains: catalog.Omniatech,
	}
}

func (a *OmniatechAdapter) Kind() Kind { return Omniatech }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *OmniatechAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *OmniatechAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	label, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: Omniatech, ChainID: chainID}
	}
	url := fmt.Sprintf("https://%s.blastapi.io/%s", label, a.apiKey)
	return postJSONRPC(ctx, Omniatech, a.client, url, headers, body)
}

func (a *OmniatechAdapter) IsRateLimited(resp *Response) bool {
	return resp.Status == http.StatusTooManyRequests
}
