package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
	"ledger/internal/client"
	"ledger/internal/config"
	"ledger/internal/prefs"
	"ledger/internal/tui"
)

func tuiCmd() *cobra.Command {
	var (
		serverURL string
		exportDir string
		analysis  bool
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal client against a ledger server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := cfgFile
			if path == "" {
				path = config.ClientConfigPath()
			}
			cfg, err := config.LoadClientFrom(path)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if save {
				if err := config.SaveClient(cfg, path); err != nil {
					return err
				}
			}

			level := logLevel
			if level == "" {
				level = "info"
			}
			logger, closer, err := cli.SetupFileLogger(level, cfg.LogFile)
			if err != nil {
				return err
			}
			defer closer.Close()

			store, err := prefs.Open(cfg.PrefsPath)
			if err != nil {
				// A broken preferences file only costs the saved theme.
				logger.Warn("Failed to open preferences", "path", cfg.PrefsPath, "error", err)
			}

			if exportDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve export dir: %w", err)
				}
				exportDir = filepath.Join(wd, "reports")
			}

			tcfg := tui.Config{
				API:       client.New(cfg.ServerURL, cfg.RequestTimeout, logger),
				Logger:    logger,
				ExportDir: exportDir,
				Timeout:   cfg.RequestTimeout,
			}
			if store != nil {
				tcfg.Prefs = store
			}
			if analysis {
				tcfg.StartTab = tui.TabAnalysis
			}

			logger.Info("Starting terminal client", "server_url", cfg.ServerURL)
			return tui.Run(cmd.Context(), tcfg)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "server base URL, overrides server_url")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for exported reports (default: ./reports)")
	cmd.Flags().BoolVar(&analysis, "analysis", false, "start on the analysis view")
	cmd.Flags().BoolVar(&save, "save-config", false, "write the effective client config back to the config file")
	return cmd
}
