// Package httpapi wires the public HTTP surface: the JSON-RPC proxy
// route, the WebSocket upgrade route, liveness, and (on the private admin
// listener) Prometheus scraping.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/analytics"
	"github.com/walletgate/rpc-gateway/internal/dispatcher"
	"github.com/walletgate/rpc-gateway/internal/metrics"
	"github.com/walletgate/rpc-gateway/internal/middleware"
	"github.com/walletgate/rpc-gateway/internal/registry"
	"github.com/walletgate/rpc-gateway/internal/wsbridge"
)

// Deps are the collaborators the public router delegates to.
type Deps struct {
	Dispatcher     *dispatcher.Dispatcher
	Bridge         *wsbridge.Bridge
	Registry       registry.ProjectRegistry
	Analytics      analytics.Sink
	Metrics        metrics.Sink
	Log            *zap.Logger
	BodyLimit      int64
	RequestTimeout time.Duration
}

// NewPublicRouter returns the router serving wallet/dApp traffic: /v1,
// /ws, and /health. RequestTimeout bounds /v1 only; /ws is long-lived and
// must not be cut off by a fixed deadline.
func NewPublicRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	h := &handlers{deps: d}
	rpcTimeout := middleware.Timeout(d.RequestTimeout)
	r.Handle("/v1", rpcTimeout(http.HandlerFunc(h.proxy)))
	r.Handle("/v1/", rpcTimeout(http.HandlerFunc(h.proxy)))
	r.HandleFunc("/ws", h.websocket)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.AccessLog(d.Log),
		middleware.MaxBodyBytes(d.BodyLimit),
	)
	return chain(r)
}

// NewAdminRouter returns the router serving the private admin listener:
// Prometheus scraping only.
func NewAdminRouter() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}
