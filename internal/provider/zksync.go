package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

// ZKSyncAdapter forwards to zkSync's own RPC endpoints. apiKey is optional
// and appended as a query parameter when present.
type ZKSyncAdapter struct {
	apiKey string
	client *http.Client
	chains catalog.Catalog
}

// NewZKSyncAdapter returns an adapter.
func NewZKSyncAdapter(apiKey string, timeout time.Duration, externalIP string) *ZKSyncAdapter {
	return &ZKSyncAdapter{
		apiKey: apiKey,
		client: NewHTTPClient(timeout, externalIP),
		chains: catalog.ZKSync,
	}
}

func (a *ZKSyncAdapter) Kind() Kind { return ZKSync }

// Label reports whether the chain has a catalog entry at all. A Disabled
// entry still returns true: it is selectable again once a weight update
// raises its cell above zero, and the selector's zero-weight exclusion is
// what keeps it out of rotation until then.
func (a *ZKSyncAdapter) Label(chainID string) (string, bool) {
	e, ok := a.chains[chainID]
	if !ok {
		return "", false
	}
	return e.Label, true
}

func (a *ZKSyncAdapter) HTTPProxy(ctx context.Context, method, chainID string, headers http.Header, body []byte) (*Response, error) {
	label, ok := a.Label(chainID)
	if !ok {
		return nil, &ErrChainNotSupported{Kind: ZKSync, ChainID: chainID}
	}
	url := fmt.Sprintf("https://%s.zksync.io", label)
	if a.apiKey != "" {
		url = fmt.Sprintf("%s?apikey=%s", url, a.apiKey)
	}
	return postJSONRPC(ctx, ZKSync, a.client, url, headers, body)
}

func (a *ZKSyncAdapter) IsRateLimited(resp *Response) bool {
	return resp.Status == http.StatusTooManyRequests
}
