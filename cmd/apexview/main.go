// Command apexview serves the public motorsport data API: a cached HTTP
// façade over the upstream timing provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/apexview/apexview/internal/api"
	"github.com/apexview/apexview/internal/cache"
	"github.com/apexview/apexview/internal/config"
	"github.com/apexview/apexview/internal/f1"
	"github.com/apexview/apexview/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "apexview:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	shutdownTracing, err := observability.SetupTracing(cfg.Tracing.Enabled)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening cache store: %w", err)
	}
	defer store.Close()

	orch := cache.NewOrchestrator(
		cache.NewMemo(cfg.Cache.MemoCapacity),
		store,
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
	)

	provider := f1.NewClient(cfg.Provider, f1.WithLogger(logger), f1.WithMetrics(metrics))

	handlers := api.NewHandlers(orch, provider, cfg.Cache.TTL, logger)
	server := api.NewServer(cfg.Server, handlers,
		api.WithServerLogger(logger),
		api.WithServerMetrics(metrics, registry),
	)

	warmer := cache.NewWarmer(orch, cfg.Warmup.Pacing, logger, metrics)
	if cfg.Warmup.Enabled {
		warmer.Start(ctx, api.WarmupTasks(provider, cfg.Cache.TTL, cfg.Warmup.Years))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.Any("error", err))
	}

	// The warm-up goroutine observes the same signal context; let it wind
	// down before the store is closed underneath it.
	if cfg.Warmup.Enabled {
		select {
		case <-warmer.Done():
		case <-shutdownCtx.Done():
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", slog.Any("error", err))
	}
	return nil
}

// newStore opens the persistent cache tier selected by the configuration.
func newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "bolt":
		if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
			return nil, err
		}
		return cache.NewBoltStore(filepath.Join(cfg.Cache.Dir, "apexview.db"))
	case "redis":
		return cache.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return cache.NewFSStore(cfg.Cache.Dir)
	}
}
