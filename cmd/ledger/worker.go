package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/worker"
)

func workerCmd() *cobra.Command {
	var startupMonths int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Rewrite monthly report files as record events arrive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is required by the worker")
			}
			return runWorker(cmd.Context(), cfg, startupMonths)
		},
	}
	cmd.Flags().IntVar(&startupMonths, "startup-months", 1, "months, ending with the current one, refreshed at start-up")
	return cmd
}

func runWorker(parent context.Context, cfg *config.Config, startupMonths int) error {
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
	// The worker only consumes; it never publishes.
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer consumer.Close()

	records := services.NewRecordService(result.Store, nil, nil, logger)
	reports := worker.NewReportWorker(records, cfg.ReportsDir, logger)

	if startupMonths > 0 {
		months := core.CurrentMonth(time.Now()).Trailing(startupMonths)
		if err := reports.StartupSync(ctx, months); err != nil {
			logger.Warn("Startup sync incomplete", "error", err)
		}
	}

	logger.Info("Starting report worker",
		"queue", cfg.AMQPQueue,
		"reports_dir", cfg.ReportsDir)
	err = consumer.ConsumeRecordEvents(ctx, reports.HandleRecordEvent)
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker stopped gracefully")
		return nil
	}
	return err
}
