package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"planogram-dashboard/internal/models"
)

// Stores lists the distinct store names, sorted.
func Stores(table *models.PlanogramTable) []string {
	if table == nil {
		return nil
	}
	return distinctSorted(table.Rows, func(r models.PlanogramRow) string { return r.StoreName })
}

// Themes lists the distinct themes of a store, or of every store when
// storeName is empty.
func Themes(table *models.PlanogramTable, storeName string) []string {
	if table == nil {
		return nil
	}
	rows := table.Rows
	if storeName != "" {
		rows = StoreThemeRows(rows, storeName, "")
	}
	return distinctSorted(rows, func(r models.PlanogramRow) string { return r.ThemeName })
}

// Deployments lists the deployments of a store and theme in start order.
func Deployments(table *models.PlanogramTable, storeName, themeName string) []models.Deployment {
	if table == nil || !table.Has(models.ColDeploymentStart) {
		return nil
	}
	seen := make(map[time.Time]struct{})
	var out []models.Deployment
	for _, row := range StoreThemeRows(table.Rows, storeName, themeName) {
		if row.DeploymentStart.IsZero() {
			continue
		}
		if _, ok := seen[row.DeploymentStart]; ok {
			continue
		}
		seen[row.DeploymentStart] = struct{}{}
		out = append(out, deploymentOf(row))
	}
	slices.SortFunc(out, func(a, b models.Deployment) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// StoreThemeRows filters rows by store name and, when themeName is not
// empty, by theme.
func StoreThemeRows(rows []models.PlanogramRow, storeName, themeName string) []models.PlanogramRow {
	var out []models.PlanogramRow
	for _, row := range rows {
		if row.StoreName != storeName {
			continue
		}
		if themeName != "" && row.ThemeName != themeName {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ProductOptions lists the products of a deployment as "id (name)" labels.
func ProductOptions(rows []models.PlanogramRow) []models.ProductOption {
	seen := make(map[string]struct{})
	var out []models.ProductOption
	for _, row := range rows {
		label := row.ProductID
		if row.ProductName != "" {
			label = fmt.Sprintf("%s (%s)", row.ProductID, row.ProductName)
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, models.ProductOption{ID: row.ProductID, Name: row.ProductName, Label: label})
	}
	slices.SortFunc(out, func(a, b models.ProductOption) int {
		return strings.Compare(a.Label, b.Label)
	})
	return out
}

// ParseProductFilter accepts a product id or an "id (name)" label. "all"
// and empty input select every product.
func ParseProductFilter(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return ""
	}
	if i := strings.Index(s, "("); i >= 0 && strings.Contains(s[i:], ")") {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func distinctSorted(rows []models.PlanogramRow, key func(models.PlanogramRow) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
