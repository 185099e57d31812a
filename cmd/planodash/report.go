package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		store      string
		theme      string
		start      string
		metric     string
		product    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard for one deployment",
		Example: `  planodash report --store Shibuya --theme "Spring Tea" --start 2024-04-10
  planodash report --store Shibuya --theme "Spring Tea" --start 2024-04-10 --product 0100 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := time.ParseInLocation(time.DateOnly, start, time.UTC)
			if err != nil {
				return fmt.Errorf("--start must be a date like 2024-04-01: %w", err)
			}

			cfg, logger, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			analytics, err := loadAnalytics(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			d, err := analytics.Compute(cmd.Context(), models.Selection{
				StoreName: store,
				ThemeName: theme,
				Start:     startDate,
				Metric:    models.Metric(metric),
				ProductID: product,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return report.Render(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "store name")
	cmd.Flags().StringVar(&theme, "theme", "", "theme name")
	cmd.Flags().StringVar(&start, "start", "", "deployment start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&metric, "metric", string(models.MetricSalesAmount), "metric for the daily and breakdown views")
	cmd.Flags().StringVar(&product, "product", "all", `product id or "id (name)" for the trend`)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	for _, name := range []string{"store", "theme", "start"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
