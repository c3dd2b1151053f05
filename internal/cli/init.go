// Package cli holds the start-up plumbing shared by the ledger commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	applog "ledger/internal/log"
)

// SetupLogger builds the process logger at the given level, writing text
// to out, and installs it as the slog default.
func SetupLogger(level string, out io.Writer) (*applog.Logger, error) {
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Output = out
	logger := applog.New(cfg)
	slog.SetDefault(logger.Logger)
	return logger, nil
}

// SetupFileLogger is SetupLogger for the terminal client, whose stdout
// belongs to the UI. The returned closer closes the log file.
func SetupFileLogger(level, path string) (*applog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := SetupLogger(level, f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger.WithComponent(applog.ComponentTUI), f, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the server configuration from the
// environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
