package gatewayerr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletgate/rpc-gateway/internal/gatewayerr"
)

func TestHTTPStatus_MapsEveryKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"chain not supported", &gatewayerr.Error{Kind: gatewayerr.ChainNotSupported}, http.StatusBadRequest},
		{"all throttled", &gatewayerr.Error{Kind: gatewayerr.AllProvidersThrottled}, http.StatusServiceUnavailable},
		{"all failed", &gatewayerr.Error{Kind: gatewayerr.AllProvidersFailed}, http.StatusBadGateway},
		{"transport", &gatewayerr.Error{Kind: gatewayerr.Transport}, http.StatusBadGateway},
		{"upstream status passthrough", &gatewayerr.Error{Kind: gatewayerr.UpstreamStatus, Status: 418}, http.StatusTeapot},
		{"upstream status out of range falls back", &gatewayerr.Error{Kind: gatewayerr.UpstreamStatus, Status: 0}, http.StatusBadGateway},
		{"non gateway error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, gatewayerr.HTTPStatus(c.err))
		})
	}
}

func TestError_IsComparesKindOnly(t *testing.T) {
	throttled := &gatewayerr.Error{Kind: gatewayerr.AllProvidersThrottled, ChainID: "eip155:1", Attempts: 3}
	sentinel := &gatewayerr.Error{Kind: gatewayerr.AllProvidersThrottled}

	assert.True(t, errors.Is(throttled, sentinel))
	assert.False(t, errors.Is(throttled, &gatewayerr.Error{Kind: gatewayerr.AllProvidersFailed}))
}

func TestError_UnwrapExposesUnderlyingCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	wrapped := &gatewayerr.Error{Kind: gatewayerr.Transport, Err: cause}

	assert.ErrorIs(t, wrapped, cause)
}

func TestError_MessagesIncludeChainAndAttempts(t *testing.T) {
	err := &gatewayerr.Error{Kind: gatewayerr.AllProvidersFailed, ChainID: "eip155:1", Attempts: 2}
	assert.Contains(t, err.Error(), "eip155:1")
	assert.Contains(t, err.Error(), "2")
}
