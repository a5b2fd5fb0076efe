// Command gateway runs the multi-tenant JSON-RPC reverse-proxy gateway:
// HTTP and WebSocket routing to Infura, Pokt, Binance, ZKSync, Publicnode,
// and Omniatech, with weighted selection, circuit breaking, and a
// background weight updater.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/walletgate/rpc-gateway/internal/analytics"
	"github.com/walletgate/rpc-gateway/internal/breaker"
	"github.com/walletgate/rpc-gateway/internal/catalog"
	"github.com/walletgate/rpc-gateway/internal/chain"
	"github.com/walletgate/rpc-gateway/internal/config"
	"github.com/walletgate/rpc-gateway/internal/dispatcher"
	"github.com/walletgate/rpc-gateway/internal/httpapi"
	"github.com/walletgate/rpc-gateway/internal/logging"
	"github.com/walletgate/rpc-gateway/internal/metrics"
	"github.com/walletgate/rpc-gateway/internal/projectcache"
	"github.com/walletgate/rpc-gateway/internal/provider"
	"github.com/walletgate/rpc-gateway/internal/registry"
	"github.com/walletgate/rpc-gateway/internal/selector"
	"github.com/walletgate/rpc-gateway/internal/weight"
	"github.com/walletgate/rpc-gateway/internal/weightupdater"
	"github.com/walletgate/rpc-gateway/internal/wsbridge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gateway: config error:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gateway: logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	repo := buildRepository(cfg)
	httpTable, wsTable := buildWeightTables()

	sink := metrics.NewPrometheus()
	sel := selector.New(httpTable)
	wsSel := selector.New(wsTable)
	breakers := breaker.NewRegistry()

	dispatch := dispatcher.New(sel, repo, breakers, sink, log, cfg.MaxAttempts)
	wsLimiter := wsbridge.NewLimiter(cfg.WSMaxGlobalConns, cfg.WSMaxPerIPConns)
	bridge := wsbridge.New(wsSel, repo, sink, log, wsLimiter, cfg.WSHandshakeTimeout, cfg.WSMaxMessageBytes)

	projectRegistry := registry.NewInMemoryRegistry()
	projectCache, err := projectcache.New(projectRegistry, cfg.ProjectCacheSize, cfg.ProjectCacheTTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gateway: project cache error:", err)
		os.Exit(1)
	}
	analyticsSink := analytics.NewAsyncSink(1024, log)
	defer analyticsSink.Close()

	requestTimeout := cfg.UpstreamTimeout * time.Duration(cfg.MaxAttempts+1)
	publicRouter := httpapi.NewPublicRouter(httpapi.Deps{
		Dispatcher:     dispatch,
		Bridge:         bridge,
		Registry:       projectCache,
		Analytics:      analyticsSink,
		Metrics:        sink,
		Log:            log,
		BodyLimit:      cfg.RequestBodyLimit,
		RequestTimeout: requestTimeout,
	})
	adminRouter := httpapi.NewAdminRouter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DynamicWeightsEnabled {
		updater := weightupdater.New(
			httpTable,
			weightupdater.PrometheusQuery(cfg.PrometheusQueryURL, cfg.WeightUpdateInterval, nil),
			sink, log, cfg.WeightUpdateInterval, cfg.WeightUpdaterMaxWeight, cfg.WeightUpdaterGraceTicks,
		)
		go updater.Run(ctx)
	}

	publicSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler:      publicRouter,
		ReadTimeout:  cfg.UpstreamTimeout,
		WriteTimeout: requestTimeout,
	}
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.AdminHost, cfg.AdminPort),
		Handler: adminRouter,
	}

	go func() {
		log.Info("gateway: public listener starting", zap.String("addr", publicSrv.Addr))
		if err := publicSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("gateway: public listener failed", zap.Error(err))
		}
	}()
	go func() {
		log.Info("gateway: admin listener starting", zap.String("addr", adminSrv.Addr))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("gateway: admin listener failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("gateway: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = publicSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}

// buildRepository constructs every provider adapter from config and
// registers the HTTP- and WS-capable ones.
func buildRepository(cfg config.Config) *provider.Repository {
	repo := provider.NewRepository()

	infura := provider.NewInfuraAdapter(cfg.InfuraProjectID, cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(infura)
	repo.RegisterWS(infura)

	pokt := provider.NewPoktAdapter(cfg.PoktProjectID, cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(pokt)

	binance := provider.NewBinanceAdapter(cfg.BinanceAPIKey, cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(binance)

	publicnode := provider.NewPublicnodeAdapter(cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(publicnode)
	repo.RegisterWS(publicnode)

	zksync := provider.NewZKSyncAdapter(cfg.ZKSyncAPIKey, cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(zksync)

	omniatech := provider.NewOmniatechAdapter(cfg.OmniatechAPIKey, cfg.UpstreamTimeout, cfg.ExternalIPHint)
	repo.RegisterHTTP(omniatech)

	return repo
}

// buildWeightTables seeds one HTTP and one WS weight table from the
// static catalogs, keyed by each chain entry's initial Priority.
func buildWeightTables() (*weight.Table, *weight.Table) {
	httpCatalogs := map[provider.Kind]catalog.Catalog{
		provider.Infura:     catalog.Infura,
		provider.Pokt:       catalog.Pokt,
		provider.Binance:    catalog.Binance,
		provider.Publicnode: catalog.Publicnode,
		provider.ZKSync:     catalog.ZKSync,
		provider.Omniatech:  catalog.Omniatech,
	}
	wsCatalogs := map[provider.Kind]catalog.Catalog{
		provider.Infura:     catalog.InfuraWS,
		provider.Publicnode: catalog.PublicnodeWS,
	}

	httpTable := weight.NewTable()
	for kind, cat := range httpCatalogs {
		for chainID, entry := range cat {
			httpTable.Register(kind, chain.ID(chainID), uint32(entry.Priority))
		}
	}

	wsTable := weight.NewTable()
	for kind, cat := range wsCatalogs {
		for chainID, entry := range cat {
			wsTable.Register(kind, chain.ID(chainID), uint32(entry.Priority))
		}
	}

	return httpTable, wsTable
}
