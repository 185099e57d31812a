package pipeline

import (
	"fmt"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/loader"
	"planogram-dashboard/internal/models"
)

// Compute derives the dashboard for one selection from a loaded snapshot.
//
// It fails only when the planogram table is unavailable or the selection is
// incomplete. Every other problem degrades a single stage and is reported
// as a notice on the result.
func Compute(snap *loader.Snapshot, sel models.Selection) (*models.Dashboard, error) {
	if snap == nil || snap.Planogram == nil {
		msg := "planogram data is unavailable; the dashboard cannot be displayed"
		if snap != nil && snap.PlanogramErr != nil {
			return nil, errors.ServiceUnavailableWrap(snap.PlanogramErr, msg)
		}
		return nil, errors.ServiceUnavailable(msg)
	}
	if sel.StoreName == "" || sel.ThemeName == "" || sel.Start.IsZero() {
		return nil, errors.Validation("store, theme and start date are required")
	}
	sel.Metric = models.ParseMetric(string(sel.Metric))
	sel.ProductID = ParseProductFilter(sel.ProductID)

	d := &models.Dashboard{Selection: sel}

	storeTheme := StoreThemeRows(snap.Planogram.Rows, sel.StoreName, sel.ThemeName)
	deployment := DeploymentRows(storeTheme, sel.StoreName, sel.ThemeName, sel.Start)
	if len(deployment) == 0 {
		d.Empty = true
		d.Notices = append(d.Notices, models.Notice{
			Code:    errors.CodeNoMatchingRows,
			Level:   models.NoticeInfo,
			Message: fmt.Sprintf("no planogram rows for %s / %s starting %s", sel.StoreName, sel.ThemeName, sel.Start.Format("2006-01-02")),
		})
		return d, nil
	}

	dep := deploymentOf(deployment[0])
	d.Deployment = &dep
	d.Products = ProductOptions(deployment)

	rows, notices := JoinDeployment(deployment, snap.Transactions, snap.Planogram)
	d.Notices = append(d.Notices, notices...)
	d.Notices = append(d.Notices, ApplyShelfMetrics(rows)...)
	d.Rows = rows
	d.TableTotals = Totals(rows)
	d.Scatter = Scatter(rows)

	window := dep.Window()
	d.Current = PeriodTotals(snap.Transactions, dep.StoreID, window.Start, window.End)

	var prevWindow *models.Window
	if prev := PreviousDeployment(storeTheme, sel.Start); prev != nil {
		d.Previous = prev
		w := prev.Window()
		prevWindow = &w
		d.Prior = PeriodTotals(snap.Transactions, prev.StoreID, w.Start, w.End)
	}
	d.Changes = Changes(d.Current, window, d.Prior, prevWindow)

	productIDs := make(map[string]struct{}, len(deployment))
	for _, row := range deployment {
		productIDs[row.ProductID] = struct{}{}
	}
	series := SeriesRows(snap.Transactions, dep.StoreID, window, productIDs)
	if len(series) == 0 && snap.Transactions != nil {
		d.Notices = append(d.Notices, models.Notice{
			Code:    errors.CodeNoMatchingRows,
			Level:   models.NoticeInfo,
			Message: "no POS activity for this store and period; charts are empty",
		})
	}
	d.Daily = DailySeries(series)
	d.Trend = ProductTrend(series, d.Daily, sel.ProductID)
	d.TrendLabel = trendLabel(sel.ProductID, deployment)
	d.Breakdown = Breakdown(series, sel.Metric)

	return d, nil
}

func trendLabel(productID string, rows []models.PlanogramRow) string {
	if productID == "" {
		return "All products"
	}
	for _, row := range rows {
		if row.ProductID == productID && row.ProductName != "" {
			return row.ProductName
		}
	}
	return productID
}
