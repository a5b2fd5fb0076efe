package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/analytics"
	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/dispatcher"
	"github.com/walletgate/rpc-gateway/internal/gatewayerr"
	"github.com/walletgate/rpc-gateway/internal/registry"
	"github.com/walletgate/rpc-gateway/internal/wsbridge"
)

type handlers struct {
	deps Deps
}

// proxy implements the JSON-RPC passthrough route: validate the project,
// normalize the chain ID, run it through the Dispatcher, and mirror the
// upstream status/body back unmodified.
func (h *handlers) proxy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	chainID := chain.Normalize(r.URL.Query().Get("chainId"))
	projectID := r.URL.Query().Get("projectId")

	decision, err := h.deps.Registry.ValidateAccessAndQuota(r.Context(), projectID)
	if err != nil {
		h.deps.Log.Error("httpapi: registry error", zap.Error(err))
		h.writeStatus(w, r, http.StatusInternalServerError, start)
		return
	}
	switch decision {
	case registry.Unauthorized:
		h.writeStatus(w, r, http.StatusUnauthorized, start)
		return
	case registry.QuotaExceeded:
		h.writeStatus(w, r, http.StatusTooManyRequests, start)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeStatus(w, r, http.StatusBadRequest, start)
		return
	}

	result, dispatchErr := h.deps.Dispatcher.Proxy(r.Context(), dispatcher.Request{
		ChainID: chainID,
		Method:  r.Method,
		Headers: r.Header,
		Body:    body,
	})

	var status int
	var providerLabel string
	var attempts int
	if dispatchErr != nil {
		status = gatewayerr.HTTPStatus(dispatchErr)
		if gerr, ok := dispatchErr.(*gatewayerr.Error); ok {
			attempts = gerr.Attempts
		}
		w.WriteHeader(status)
	} else {
		status = result.Response.Status
		providerLabel = string(result.Provider)
		attempts = result.Attempts
		for k, vs := range result.Response.Headers {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write(result.Response.Body)
	}

	h.deps.Analytics.Record(analytics.Event{
		ProjectID: projectID,
		ChainID:   string(chainID),
		Provider:  providerLabel,
		Status:    status,
		Attempts:  attempts,
	})
	h.recordRoute("/v1", status, start)
	h.deps.Log.Debug("httpapi: proxy request complete",
		zap.String("chain_id", string(chainID)), zap.String("project_id", projectID),
		zap.Int("status", status), zap.Duration("latency", time.Since(start)))
}

// websocket implements the WS upgrade route.
func (h *handlers) websocket(w http.ResponseWriter, r *http.Request) {
	chainID := chain.Normalize(r.URL.Query().Get("chainId"))
	projectID := r.URL.Query().Get("projectId")

	decision, err := h.deps.Registry.ValidateAccessAndQuota(r.Context(), projectID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if decision != registry.Allowed {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.deps.Bridge.Serve(w, r, chainID, projectID); err != nil {
		if err == wsbridge.ErrNoWSProvider {
			http.Error(w, "chain not supported over websocket", http.StatusBadRequest)
			return
		}
		if err == wsbridge.ErrTooManyConnections {
			http.Error(w, "too many websocket connections", http.StatusServiceUnavailable)
			return
		}
		h.deps.Log.Debug("httpapi: websocket bridge error",
			zap.String("chain_id", string(chainID)), zap.String("project_id", projectID), zap.Error(err))
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) writeStatus(w http.ResponseWriter, r *http.Request, status int, start time.Time) {
	w.WriteHeader(status)
	h.recordRoute("/v1", status, start)
	h.deps.Log.Debug("httpapi: request rejected", zap.Int("status", status), zap.Duration("latency", time.Since(start)))
}

func (h *handlers) recordRoute(route string, status int, start time.Time) {
	label := strconv.Itoa(status)
	h.deps.Metrics.AddHTTPCall(label, route)
	h.deps.Metrics.AddHTTPLatency(label, route, time.Since(start).Seconds())
}
