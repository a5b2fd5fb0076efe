// Package wsbridge relays a client WebSocket connection to an upstream
// provider's WebSocket endpoint, preserving message boundaries and
// propagating backpressure naturally in both directions.
package wsbridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/metrics"
	"github.com/walletgate/rpc-gateway/internal/middleware"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/selector"
)

// Bridge selects a WS-capable provider, dials it, and relays frames
// between it and an upgraded client connection.
type Bridge struct {
	selector         *selector.Selector
	repo             *provider.Repository
	metrics          metrics.Sink
	log              *zap.Logger
	upgrader         websocket.Upgrader
	dialer           *websocket.Dialer
	limiter          *Limiter
	handshakeTimeout time.Duration
	maxMessageBytes  int64
}

// New returns a Bridge. handshakeTimeout bounds both the client upgrade
// and the upstream dial; maxMessageBytes bounds a single relayed frame.
// limiter caps concurrent bridges globally and per client IP; a nil
// limiter disables that cap.
func New(sel *selector.Selector, repo *provider.Repository, sink metrics.Sink, log *zap.Logger, limiter *Limiter, handshakeTimeout time.Duration, maxMessageBytes int64) *Bridge {
	return &Bridge{
		selector: sel,
		repo:     repo,
		metrics:  sink,
		log:      log,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		limiter:          limiter,
		handshakeTimeout: handshakeTimeout,
		maxMessageBytes:  maxMessageBytes,
	}
}

// ErrNoWSProvider is returned when no registered provider serves WS for
// the requested chain.
var ErrNoWSProvider = errors.New("wsbridge: no ws-capable provider for chain")

// ErrTooManyConnections is returned when the configured connection limiter
// rejects a bridge because the global or per-IP cap is already exhausted.
var ErrTooManyConnections = errors.New("wsbridge: connection limit exceeded")

// Serve runs the selection → dial → upgrade → relay lifecycle for one
// inbound WebSocket request. It blocks until the bridge closes.
func (b *Bridge) Serve(w http.ResponseWriter, r *http.Request, chainID chain.ID, projectID string) error {
	if b.limiter != nil {
		clientIP := middleware.ClientIP(r)
		if !b.limiter.Acquire(clientIP) {
			return ErrTooManyConnections
		}
		defer b.limiter.Release(clientIP)
	}

	tried := selector.NewExclusion()

	var upstreamURL string
	var kind provider.Kind
	for {
		k, err := b.selector.Pick(chainID, tried)
		if err != nil {
			return ErrNoWSProvider
		}
		adapter, ok := b.repo.WS(k)
		if !ok {
			tried.Add(k)
			continue
		}
		url, ok := adapter.UpstreamURL(string(chainID))
		if !ok {
			tried.Add(k)
			continue
		}
		upstreamURL = url
		kind = k
		break
	}

	ctx, cancel := context.WithTimeout(r.Context(), b.handshakeTimeout)
	upstreamConn, _, err := b.dialer.DialContext(ctx, upstreamURL, nil)
	cancel()
	if err != nil {
		return &provider.TransportError{Kind: kind, Err: err}
	}
	defer upstreamConn.Close()

	clientConn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer clientConn.Close()

	upstreamConn.SetReadLimit(b.maxMessageBytes)
	clientConn.SetReadLimit(b.maxMessageBytes)

	b.metrics.AddWebsocketConnection(string(kind))
	defer b.metrics.RemoveWebsocketConnection(string(kind))

	// Each relay goroutine blocks in ReadMessage, which a context alone
	// cannot interrupt; closing both sockets when either leg ends is what
	// unblocks the other; closing is what makes one leg ending cancel the
	// other.
	var closeOnce sync.Once
	stopBoth := func() {
		closeOnce.Do(func() {
			clientConn.Close()
			upstreamConn.Close()
		})
	}

	g := &errgroup.Group{}
	g.Go(func() error {
		defer stopBoth()
		return relay(clientConn, upstreamConn)
	})
	g.Go(func() error {
		defer stopBoth()
		return relay(upstreamConn, clientConn)
	})

	if err := g.Wait(); err != nil {
		b.log.Debug("wsbridge: relay ended",
			zap.String("provider", string(kind)), zap.String("chain", string(chainID)),
			zap.String("project_id", projectID), zap.Error(err))
	}
	return nil
}

// relay copies whole messages from src to dst until either side errors or
// a close frame is read. It never buffers more than one message at a time.
func relay(dst, src *websocket.Conn) error {
	for {
		msgType, data, err := src.ReadMessage()
		if err != nil {
			return err
		}
		if err := dst.WriteMessage(msgType, data); err != nil {
			return err
		}
	}
}
