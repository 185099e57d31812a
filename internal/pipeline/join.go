package pipeline

import (
	"fmt"
	"time"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
)

type joinKey struct {
	storeID   string
	productID string
}

// DeploymentRows restricts planogram rows to one deployment.
func DeploymentRows(rows []models.PlanogramRow, storeName, themeName string, start time.Time) []models.PlanogramRow {
	var out []models.PlanogramRow
	for _, row := range rows {
		if row.StoreName == storeName && row.ThemeName == themeName && row.DeploymentStart.Equal(start) {
			out = append(out, row)
		}
	}
	return out
}

// JoinDeployment enriches each planogram row with the POS activity of its
// product at its store inside the row's own deployment window.
//
// The output has exactly one row per input row, in input order. Rows with no
// matching activity are zero-filled. When the join cannot run at all the rows
// come back un-enriched together with a notice explaining why.
func JoinDeployment(rows []models.PlanogramRow, pos *models.TransactionTable, planogram *models.PlanogramTable) ([]models.ShelfRow, []models.Notice) {
	out := make([]models.ShelfRow, len(rows))
	for i, row := range rows {
		out[i] = models.ShelfRow{PlanogramRow: row}
	}

	if pos == nil {
		return out, []models.Notice{{
			Code:    errors.CodeSourceNotFound,
			Level:   models.NoticeInfo,
			Message: "POS data is not loaded; showing planogram rows only",
		}}
	}
	if missing := missingJoinColumns(pos, planogram); len(missing) > 0 {
		return out, []models.Notice{{
			Code:    errors.CodeMissingColumn,
			Level:   models.NoticeWarn,
			Message: fmt.Sprintf("columns required for the POS join are missing %v; showing planogram rows only", missing),
		}}
	}

	index := make(map[joinKey][]int, len(rows))
	for i, row := range rows {
		k := joinKey{storeID: row.StoreID, productID: row.ProductID}
		index[k] = append(index[k], i)
	}

	for _, tx := range pos.Rows {
		if tx.Date.IsZero() {
			continue
		}
		for _, i := range index[joinKey{storeID: tx.StoreID, productID: tx.ProductID}] {
			row := rows[i]
			if row.DeploymentStart.IsZero() || row.DeploymentEnd.IsZero() {
				continue
			}
			if inWindow(tx.Date, row.DeploymentStart, row.DeploymentEnd) {
				out[i].Measures = out[i].Measures.Add(models.MeasuresOf(tx))
			}
		}
	}

	for i := range out {
		out[i].Enriched = true
	}
	return out, nil
}

func missingJoinColumns(pos *models.TransactionTable, planogram *models.PlanogramTable) []models.Column {
	var missing []models.Column
	if !pos.Has(models.ColTransactionDate) {
		missing = append(missing, models.ColTransactionDate)
	}
	// A nil planogram table means the rows were built directly; nothing to check.
	if planogram != nil {
		for _, c := range []models.Column{models.ColDeploymentStart, models.ColDeploymentEnd} {
			if !planogram.Has(c) {
				missing = append(missing, c)
			}
		}
	}
	return missing
}

// Totals sums the measures of the given rows.
func Totals(rows []models.ShelfRow) models.Measures {
	var total models.Measures
	for _, r := range rows {
		total = total.Add(r.Measures)
	}
	return total
}
