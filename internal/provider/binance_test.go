package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/rpc-gateway/internal/catalog"
)

func TestBinanceAdapter_IsRateLimited_403And429(t *testing.T) {
	a := NewBinanceAdapter("", 0, "")
	assert.True(t, a.IsRateLimited(&Response{Status: http.StatusForbidden}))
	assert.True(t, a.IsRateLimited(&Response{Status: http.StatusTooManyRequests}))
	assert.False(t, a.IsRateLimited(&Response{Status: http.StatusOK}))
}

func TestBinanceAdapter_HTTPProxy_SendsAPIKeyHeaderWhenSet(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	}))
	defer srv.Close()

	a := &BinanceAdapter{
		apiKey: "test-key",
		client: NewHTTPClient(0, ""),
		chains: catalog.Catalog{"eip155:56": {Label: srv.URL, Priority: PriorityHigh}},
	}

	resp, err := a.HTTPProxy(context.Background(), http.MethodPost, "eip155:56", http.Header{}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "test-key", gotKey)
}

func TestBinanceAdapter_HTTPProxy_OmitsHeaderWhenKeyEmpty(t *testing.T) {
	sawHeader := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawHeader = r.Header.Get("X-MBX-APIKEY") != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := &BinanceAdapter{
		apiKey: "",
		client: NewHTTPClient(0, ""),
		chains: catalog.Catalog{"eip155:56": {Label: srv.URL, Priority: PriorityHigh}},
	}

	_, err := a.HTTPProxy(context.Background(), http.MethodPost, "eip155:56", http.Header{}, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, sawHeader)
}
