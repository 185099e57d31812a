package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"planogram-dashboard/internal/config"
	"planogram-dashboard/internal/loader"
	"planogram-dashboard/internal/observability"
	"planogram-dashboard/internal/services"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planodash",
		Short:         "Planogram and POS analytics for in-store display deployments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables override it)")

	root.AddCommand(serveCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(catalogCmd())

	return root
}

// setup loads the configuration and builds a logger writing to logOut.
func setup(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := observability.NewLogger(cfg.Logger, logOut)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// loadAnalytics reads both data sources within the configured timeout.
func loadAnalytics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.Analytics, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.LoadTimeout)
	defer cancel()

	analytics := services.NewAnalytics(logger)
	err := analytics.Load(ctx, loader.Sources{
		Transactions: cfg.Data.TransactionsFile,
		Planogram:    cfg.Data.PlanogramFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return analytics, nil
}
