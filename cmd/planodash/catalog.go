package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/report"
	"planogram-dashboard/internal/services"
)

func catalogCmd() *cobra.Command {
	var (
		store      string
		theme      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the deployments in the planogram file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			analytics, err := loadAnalytics(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			deployments, err := listDeployments(cmd.Context(), analytics, store, theme)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if deployments == nil {
					deployments = []models.Deployment{}
				}
				return enc.Encode(deployments)
			}
			return report.Catalog(cmd.OutOrStdout(), deployments)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "only this store")
	cmd.Flags().StringVar(&theme, "theme", "", "only this theme")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func listDeployments(ctx context.Context, analytics *services.Analytics, store, theme string) ([]models.Deployment, error) {
	stores := []string{store}
	if store == "" {
		var err error
		if stores, err = analytics.Stores(); err != nil {
			return nil, err
		}
	}

	var out []models.Deployment
	for _, s := range stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		themes := []string{theme}
		if theme == "" {
			var err error
			if themes, err = analytics.Themes(s); err != nil {
				return nil, err
			}
		}
		for _, th := range themes {
			deployments, err := analytics.Deployments(s, th)
			if err != nil {
				return nil, err
			}
			out = append(out, deployments...)
		}
	}
	return out, nil
}
