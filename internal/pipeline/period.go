// Package pipeline turns the two loaded tables and an analyst's selection
// into the dashboard result set. Every function here is pure: callers
// re-invoke Compute whenever a selection changes.
package pipeline

import (
	"time"

	"planogram-dashboard/internal/models"
)

// PeriodTotals sums the POS measures of one store over [start, end], both
// ends included. Missing inputs give zero totals; it never fails.
func PeriodTotals(table *models.TransactionTable, storeID string, start, end time.Time) models.Measures {
	var total models.Measures
	if table == nil || storeID == "" || start.IsZero() || end.IsZero() || !table.Has(models.ColTransactionDate) {
		return total
	}

	for _, tx := range table.Rows {
		if tx.StoreID != storeID || !inWindow(tx.Date, start, end) {
			continue
		}
		total = total.Add(models.MeasuresOf(tx))
	}
	return total
}

// inWindow reports whether a non-null date lies in [start, end].
// All dates are civil dates at UTC midnight, so plain comparisons are date-only.
func inWindow(d, start, end time.Time) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(start) && !d.After(end)
}
