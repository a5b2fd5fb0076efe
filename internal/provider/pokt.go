package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// poktRateLimitCode is the JSON-RPC error code Pokt's load balancer
// returns when a session is throttled, grounded on original_source's
// commented-out check in providers/pokt.rs.
const poktRateLimitCode = -32068

// PoktAdapter forwards to Pokt's load-balanced gateway endpoints.
type PoktAdapter struct {
	projectID string
	client    *http.Client
	chains    catalog.Catalog
}

// NewPoktAdapter returns an adapter authenticated with projectID (Pokt's
// load-balancer app ID).
func NewPoktAdapter(projectID string, timeout time.Duration, externalIP string) *PoktAdapter {
	return &PoktAdapter{
		projectID: projectID,
		client:    NewHTTPClient(timeout, externalIP),
		chains:    catalog.Pokt,
	}
}

func (a *PoktAdapter) Kind() Kind { return Pokt }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *PoktAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *PoktAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	label, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: Pokt, ChainID: chainID}
	}
	url := fmt.Sprintf("https://%s.gateway.pokt.network/v1/lb/%s", label, a.projectID)
	return postJSONRPC(ctx, Pokt, a.client, url, headers, body)
}

// IsRateLimited checks the HTTP status first, then falls back to decoding
// the buffered body for a JSON-RPC -32068 error code, since Pokt's load
// balancer sometimes signals throttling with a 200 status and an
// in-payload error instead of a 429.
func (a *PoktAdapter) IsRateLimited(resp *Response) bool {
	if resp.Status == http.StatusTooManyRequests {
		return true
	}
	if resp.Status != http.StatusOK {
		return false
	}
	var envelope struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return false
	}
	return envelope.Error != nil && envelope.Error.Code == poktRateLimitCode
}
