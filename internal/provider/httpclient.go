package provider

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client with a pooled transport, one per adapter
// instance rather than a single shared default client. externalIP, when
// non-empty, binds the dialer's local address so outbound calls leave on a
// consistent source address — several providers (Binance in particular)
// pair an API key with an IP allowlist, which only works if the gateway's
// egress address is stable across its network interfaces.
func NewHTTPClient(timeout time.Duration, externalIP string) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if externalIP != "" {
		if ip := net.ParseIP(externalIP); ip != nil {
			dialer.LocalAddr = &net.TCPAddr{IP: ip}
		}
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// forwardedRequestHeaders is the set of inbound headers passed through to upstream
// providers. The core does not forward hop-by-hop or host-identifying
// headers.
var forwardedRequestHeaders = []string{"Content-Type", "Accept"}

// forwardedResponseHeaders is the set of upstream headers passed back to the
// client.
var forwardedResponseHeaders = []string{"Content-Type", "Retry-After"}

// postJSONRPC performs the shared do-POST-and-buffer-body work every HTTP
// adapter needs. The body is read fully into memory: rate-limit
// classification for Pokt needs to inspect the JSON-RPC error code, which
// requires a buffered body rather than a streamed one.
func postJSONRPC(ctx context.Context, kind Kind, client *http.Client, url string, headers http.Header, body []byte, extra ...http.Header) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Kind: kind, Err: err}
	}
	for _, h := range forwardedRequestHeaders {
		if v := headers.Get(h); v != "" {
			httpReq.Header.Set(h, v)
		}
	}
	for _, e := range extra {
		for k, vs := range e {
			for _, v := range vs {
				httpReq.Header.Add(k, v)
			}
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &TransportError{Kind: kind, Err: err}
	}

	out := &Response{Status: resp.StatusCode, Headers: make(http.Header), Body: respBody}
	for _, h := range forwardedResponseHeaders {
		if v := resp.Header.Get(h); v != "" {
			out.Headers.Set(h, v)
		}
	}
	return out, nil
}
