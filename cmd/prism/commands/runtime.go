// Package commands implements CLI command handlers for prism.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Sumatoshi-tech/prism/internal/config"
	"github.com/Sumatoshi-tech/prism/internal/observability"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// shutdownTimeout bounds the metrics server drain on close.
const shutdownTimeout = 5 * time.Second

// runtime bundles the shared dependencies of a command invocation.
type runtime struct {
	cfg     *config.Config
	store   storage.Store
	logger  *slog.Logger
	metrics *observability.PipelineMetrics

	metricsSrv *http.Server
}

// openRuntime loads the configuration and opens the store, the logger and,
// when enabled, the metrics endpoint.
func openRuntime(configPath string, verbose bool) (*runtime, error) {
	cfg, cfgErr := config.LoadConfig(configPath)
	if cfgErr != nil {
		return nil, cfgErr
	}

	level, levelErr := cfg.SlogLevel()
	if levelErr != nil {
		return nil, levelErr
	}

	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rt := &runtime{cfg: cfg, logger: logger}

	store, storeErr := openStore(cfg, logger)
	if storeErr != nil {
		return nil, storeErr
	}

	rt.store = store

	if cfg.Metrics.Enabled {
		if err := rt.startMetrics(); err != nil {
			_ = store.Close()

			return nil, err
		}
	}

	return rt, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.Store.Path == "" {
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.OpenSQLite(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return store, nil
}

func (rt *runtime) startMetrics() error {
	meter, handler, meterErr := observability.PrometheusMeter()
	if meterErr != nil {
		return meterErr
	}

	metrics, metricsErr := observability.NewPipelineMetrics(meter)
	if metricsErr != nil {
		return metricsErr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	rt.metrics = metrics
	rt.metricsSrv = &http.Server{Addr: rt.cfg.Metrics.Addr, Handler: mux}

	go func() {
		serveErr := rt.metricsSrv.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			rt.logger.Error("metrics server failed", slog.Any("error", serveErr))
		}
	}()

	rt.logger.Info("metrics endpoint started", slog.String("addr", rt.cfg.Metrics.Addr))

	return nil
}

// Close releases the runtime: the metrics server first, then the store.
func (rt *runtime) Close() error {
	if rt.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := rt.metricsSrv.Shutdown(ctx); err != nil {
			rt.logger.Warn("metrics server shutdown failed", slog.Any("error", err))
		}
	}

	return rt.store.Close()
}
