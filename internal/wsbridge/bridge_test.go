package wsbridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/selector"
	"github.com/walletgate/rpc-gateway/internal/weight"
	"github.com/walletgate/rpc-gateway/internal/wsbridge"
)

type noopSink struct{}

func (noopSink) AddHTTPLatency(string, string, float64)     {}
func (noopSink) AddHTTPCall(string, string)                 {}
func (noopSink) AddProviderFinishedCall(string, string)     {}
func (noopSink) AddProviderStatusCode(string, string, int)  {}
func (noopSink) AddProviderLatency(string, string, float64) {}
func (noopSink) AddRateLimitedCall(string, string)          {}
func (noopSink) AddWebsocketConnection(string)              {}
func (noopSink) RemoveWebsocketConnection(string)           {}
func (noopSink) SetProviderWeight(string, string, uint32)   {}

type echoWSAdapter struct {
	kind    provider.Kind
	chainID string
	wsURL   string
}

func (a *echoWSAdapter) Kind() provider.Kind { return a.kind }
func (a *echoWSAdapter) Label(chainID string) (string, bool) {
	if chainID != a.chainID {
		return "", false
	}
	return chainID, true
}
func (a *echoWSAdapter) UpstreamURL(chainID string) (string, bool) {
	if chainID != a.chainID {
		return "", false
	}
	return a.wsURL, true
}

func newEchoUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
}

func TestBridge_RelaysMessagesRoundTrip(t *testing.T) {
	upstream := newEchoUpstream(t)
	defer upstream.Close()
	upstreamWS := "ws" + strings.TrimPrefix(upstream.URL, "http")

	chainID := chain.ID("eip155:1")
	adapter := &echoWSAdapter{kind: provider.Infura, chainID: string(chainID), wsURL: upstreamWS}

	repo := provider.NewRepository()
	repo.RegisterWS(adapter)
	table := weight.NewTable()
	table.Register(provider.Infura, chainID, 1)
	sel := selector.New(table)

	bridge := wsbridge.New(sel, repo, noopSink{}, zap.NewNop(), nil, 5*time.Second, 1<<20)

	gatewaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := bridge.Serve(w, r, chainID, "proj-1")
		assert.NoError(t, err)
	}))
	defer gatewaySrv.Close()
	gatewayWS := "ws" + strings.TrimPrefix(gatewaySrv.URL, "http")

	clientConn, _, err := websocket.DefaultDialer.DialContext(context.Background(), gatewayWS, nil)
	require.NoError(t, err)
	defer clientConn.Close()

	require.NoError(t, clientConn.WriteMessage(websocket.TextMessage, []byte("ping")))
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := clientConn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, "ping", string(data))
}

func TestBridge_Serve_NoWSProviderForChain(t *testing.T) {
	repo := provider.NewRepository()
	table := weight.NewTable()
	sel := selector.New(table)
	bridge := wsbridge.New(sel, repo, noopSink{}, zap.NewNop(), nil, time.Second, 1<<20)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := bridge.Serve(w, r, chain.ID("eip155:999999"), "proj-1")
		if err == wsbridge.ErrNoWSProvider {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridge_ClosingClientEndsRelayWithoutHanging(t *testing.T) {
	upstream := newEchoUpstream(t)
	defer upstream.Close()
	upstreamWS := "ws" + strings.TrimPrefix(upstream.URL, "http")

	chainID := chain.ID("eip155:1")
	adapter := &echoWSAdapter{kind: provider.Infura, chainID: string(chainID), wsURL: upstreamWS}

	repo := provider.NewRepository()
	repo.RegisterWS(adapter)
	table := weight.NewTable()
	table.Register(provider.Infura, chainID, 1)
	sel := selector.New(table)

	bridge := wsbridge.New(sel, repo, noopSink{}, zap.NewNop(), nil, 5*time.Second, 1<<20)

	done := make(chan error, 1)
	gatewaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- bridge.Serve(w, r, chainID, "proj-1")
	}))
	defer gatewaySrv.Close()
	gatewayWS := "ws" + strings.TrimPrefix(gatewaySrv.URL, "http")

	clientConn, _, err := websocket.DefaultDialer.DialContext(context.Background(), gatewayWS, nil)
	require.NoError(t, err)

	require.NoError(t, clientConn.WriteMessage(websocket.TextMessage, []byte("hello")))
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = clientConn.ReadMessage()
	require.NoError(t, err)

	clientConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after the client closed its connection")
	}
}
