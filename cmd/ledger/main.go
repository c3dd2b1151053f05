package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	rootCmd  = &cobra.Command{
		Use:   "ledger",
		Short: "Personal income and expense ledger",
		Long: `ledger records incomes and expenses, charts them per month and exports
monthly reports.

Run "ledger serve" for the API and web page, "ledger tui" for the terminal
client and "ledger worker" to keep report files in step with record events.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "client config file (default: $XDG_CONFIG_HOME/ledger/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Load .env file for local development
	cli.LoadEnvFile()
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("ledger", version)
		},
	}
}
