package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"planogram-dashboard/internal/config"
	"planogram-dashboard/internal/handlers"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/server"
	"planogram-dashboard/internal/services"
	"planogram-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the data files and serve the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

// dashboardPage renders the full page. Store choices are filled in when the
// planogram is available.
func dashboardPage(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		stores, err := analytics.Stores()
		if err != nil {
			logger.Warn("dashboard page without stores", "error", err)
		}
		data := templates.PageData{
			Options: templates.Options{
				Stores:    stores,
				Metrics:   models.Metrics,
				Selection: templates.Signals{Metric: string(models.MetricSalesAmount), Product: "all"},
			},
			Notices: analytics.Notices(),
		}
		if snap := analytics.Snapshot(); snap != nil {
			data.LoadedAt = snap.LoadedAt
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(data).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		"version", handlers.Version,
		"address", cfg.Address(),
		"transactions_file", cfg.Data.TransactionsFile,
		"planogram_file", cfg.Data.PlanogramFile,
	)

	start := time.Now()
	analytics, err := loadAnalytics(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("data loaded", "duration", time.Since(start))

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(analytics, logger),
	}

	srv := server.NewServer(analytics, logger, templateHandlers)
	handler := server.Stack(cfg, logger)(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}
