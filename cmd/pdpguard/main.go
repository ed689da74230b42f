// pdpguard verifies that product detail pages still show a price and a
// working Add-to-Cart control, and routes the outcome to the configured
// channels.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentops/pdpguard/internal/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "pdpguard",
		Short:         "Verify product detail pages and alert on regressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "pdpguard.yaml", "Path to the config file")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file and sets up logging.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}
