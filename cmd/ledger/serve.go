package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/cache"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/core"
	apphttp "ledger/internal/http"
	"ledger/internal/services"
)

const (
	chartCacheSize  = 32
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the web page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides PORT")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	logger, err := cli.SetupLogger(cfg.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var charts cache.Cache[core.ChartData]
	caches := cache.NewManager(logger)
	if cfg.ChartCacheTTL > 0 {
		lru := cache.NewLRUCache[core.ChartData](chartCacheSize, cfg.ChartCacheTTL)
		caches.Register(lru)
		charts = lru
	}
	caches.StartCleanup(cleanupInterval)
	defer caches.Stop()

	records := services.NewRecordService(result.Store, result.Publisher, charts, logger)
	srv := apphttp.NewServer(":"+cfg.Port, records, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
