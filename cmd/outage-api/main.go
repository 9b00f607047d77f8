// Command outage-api serves GET /api/outages: the open, approved water
// outages for an Irish county, optionally filtered by reference number or
// location text.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-outage-monitor/internal/adapter/arcgis"
	httpadapter "github.com/couchcryptid/water-outage-monitor/internal/adapter/http"
	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
	"github.com/couchcryptid/water-outage-monitor/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := arcgis.NewClient(cfg.ArcGISURL, cfg.ArcGISTimeout, metrics, logger)

	// Response caching is opt-in via ARCGIS_CACHE_TTL.
	var fetcher domain.OutageFetcher = client
	if cfg.ArcGISCacheTTL > 0 {
		fetcher = arcgis.NewCachedFetcher(client, cfg.ArcGISCacheSize, cfg.ArcGISCacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("arcgis response cache enabled", "ttl", cfg.ArcGISCacheTTL, "size", cfg.ArcGISCacheSize)
	}

	svc := query.NewService(fetcher, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, client, svc, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
