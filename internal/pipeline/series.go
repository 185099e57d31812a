package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"planogram-dashboard/internal/models"
)

// SeriesRows restricts POS rows to a store, a window and a product set.
func SeriesRows(table *models.TransactionTable, storeID string, w models.Window, productIDs map[string]struct{}) []models.Transaction {
	if table == nil || !table.Has(models.ColTransactionDate) {
		return nil
	}
	var out []models.Transaction
	for _, tx := range table.Rows {
		if tx.StoreID != storeID || !inWindow(tx.Date, w.Start, w.End) {
			continue
		}
		if _, ok := productIDs[tx.ProductID]; !ok {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// DailySeries sums each measure per day and carries a running total. Only
// days with activity appear; gaps are not filled in.
func DailySeries(rows []models.Transaction) []models.DailyPoint {
	byDay := make(map[time.Time]models.Measures)
	for _, tx := range rows {
		if tx.Date.IsZero() {
			continue
		}
		byDay[tx.Date] = byDay[tx.Date].Add(models.MeasuresOf(tx))
	}

	points := make([]models.DailyPoint, 0, len(byDay))
	for day, m := range byDay {
		points = append(points, models.DailyPoint{Date: day, Daily: m})
	}
	slices.SortFunc(points, func(a, b models.DailyPoint) int {
		return a.Date.Compare(b.Date)
	})

	var running models.Measures
	for i := range points {
		running = running.Add(points[i].Daily)
		points[i].Cumulative = running
	}
	return points
}

// ProductTrend is the daily sales amount of one product. An empty productID
// means every product, which is read straight off the daily series.
func ProductTrend(rows []models.Transaction, daily []models.DailyPoint, productID string) []models.TrendPoint {
	if productID == "" {
		out := make([]models.TrendPoint, len(daily))
		for i, p := range daily {
			out[i] = models.TrendPoint{Date: p.Date, Value: p.Daily.SalesAmount.InexactFloat64()}
		}
		return out
	}

	var own []models.Transaction
	for _, tx := range rows {
		if tx.ProductID == productID {
			own = append(own, tx)
		}
	}
	series := DailySeries(own)
	out := make([]models.TrendPoint, len(series))
	for i, p := range series {
		out[i] = models.TrendPoint{Date: p.Date, Value: p.Daily.SalesAmount.InexactFloat64()}
	}
	return out
}

// Breakdown totals a metric per product name, largest first.
func Breakdown(rows []models.Transaction, metric models.Metric) []models.BreakdownSlice {
	totals := make(map[string]models.Measures)
	for _, tx := range rows {
		totals[tx.ProductName] = totals[tx.ProductName].Add(models.MeasuresOf(tx))
	}

	out := make([]models.BreakdownSlice, 0, len(totals))
	for name, m := range totals {
		out = append(out, models.BreakdownSlice{ProductName: name, Value: m.Value(metric)})
	}
	slices.SortFunc(out, func(a, b models.BreakdownSlice) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.ProductName, b.ProductName)
	})
	return out
}

// Scatter pairs each shelf row's occupancy with its sales amount.
func Scatter(rows []models.ShelfRow) []models.ScatterPoint {
	out := make([]models.ScatterPoint, len(rows))
	for i, r := range rows {
		out[i] = models.ScatterPoint{
			ProductName: r.ProductName,
			Occupancy:   r.OccupancyValue,
			SalesAmount: r.Measures.SalesAmount.InexactFloat64(),
		}
	}
	return out
}
