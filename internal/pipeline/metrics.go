package pipeline

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
)

const notApplicable = "N/A"

// ParseOccupancy reads an occupancy percentage. Unreadable values are 0.
func ParseOccupancy(raw string) float64 {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ShelfEfficiency is sales quantity per occupancy point, rounded up to two
// decimals. It is 0 when occupancy is not positive.
func ShelfEfficiency(quantity, occupancy float64) float64 {
	if occupancy <= 0 {
		return 0
	}
	eff := quantity / occupancy
	if !(eff > 0) || math.IsInf(eff, 0) {
		return 0
	}
	return math.Ceil(eff*100) / 100
}

// FormatOccupancy truncates to one decimal and appends a percent sign.
func FormatOccupancy(occupancy float64) string {
	return fmt.Sprintf("%.1f%%", math.Floor(occupancy*10)/10)
}

// Quantile interpolates linearly between the closest ranks, the same rule
// spreadsheet tools and pandas use by default. values need not be sorted.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Rate assigns a shelf rating from the quartiles of the known efficiencies.
func Rate(efficiency, q1, q3 float64) models.ShelfRating {
	switch {
	case efficiency <= q1:
		return models.RatingUnderperforming
	case efficiency <= q3:
		return models.RatingAverage
	default:
		return models.RatingStrong
	}
}

// ApplyShelfMetrics fills occupancy, efficiency and rating on every row of a
// deployment. Ratings are relative to the other rows of the same slice.
func ApplyShelfMetrics(rows []models.ShelfRow) []models.Notice {
	var known []float64
	for i := range rows {
		r := &rows[i]
		r.OccupancyValue = ParseOccupancy(r.Occupancy)
		r.OccupancyDisplay = FormatOccupancy(r.OccupancyValue)
		if !r.Enriched {
			r.Efficiency, r.HasEfficiency = 0, false
			continue
		}
		r.Efficiency = ShelfEfficiency(r.Measures.SalesQuantity, r.OccupancyValue)
		r.HasEfficiency = true
		known = append(known, r.Efficiency)
	}

	if len(known) == 0 {
		for i := range rows {
			rows[i].Rating = models.RatingUnavailable
		}
		if len(rows) == 0 {
			return nil
		}
		return []models.Notice{{
			Code:    errors.CodeMissingColumn,
			Level:   models.NoticeInfo,
			Message: "no shelf efficiency values; shelf rating unavailable",
		}}
	}

	q1, q3 := Quantile(known, 0.25), Quantile(known, 0.75)
	for i := range rows {
		if rows[i].HasEfficiency {
			rows[i].Rating = Rate(rows[i].Efficiency, q1, q3)
		} else {
			rows[i].Rating = models.RatingUnavailable
		}
	}
	return nil
}

// DailyChange compares the per-day average of a measure between the current
// window and the previous one. A nil previous window means there is nothing
// to compare against.
func DailyChange(current float64, cur models.Window, previous float64, prev *models.Window) models.Change {
	na := models.Change{Direction: models.ChangeNotApplicable, Display: notApplicable}
	if prev == nil || cur.Start.IsZero() || cur.End.IsZero() || prev.Start.IsZero() || prev.End.IsZero() {
		return na
	}

	curAvg := dailyAverage(current, cur.Days())
	prevAvg := dailyAverage(previous, prev.Days())

	if prevAvg == 0 {
		if curAvg > 0 {
			// Percent stays 0: JSON has no infinity.
			return models.Change{
				Infinite:  true,
				Direction: models.ChangePositive,
				Display:   "+∞%",
			}
		}
		return na
	}

	pct := (curAvg - prevAvg) / prevAvg * 100
	switch {
	case pct > 0:
		return models.Change{Percent: pct, Direction: models.ChangePositive, Display: fmt.Sprintf("+%.1f%%", pct)}
	case pct < 0:
		return models.Change{Percent: pct, Direction: models.ChangeNegative, Display: fmt.Sprintf("%.1f%%", pct)}
	default:
		return models.Change{Direction: models.ChangeNeutral, Display: "0.0%"}
	}
}

func dailyAverage(total float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return total / float64(days)
}

// Changes applies DailyChange to each of the four measures.
func Changes(current models.Measures, cur models.Window, previous models.Measures, prev *models.Window) models.ChangeSet {
	get := func(m models.Metric) models.Change {
		return DailyChange(current.Value(m), cur, previous.Value(m), prev)
	}
	return models.ChangeSet{
		SalesAmount:     get(models.MetricSalesAmount),
		SalesQuantity:   get(models.MetricSalesQuantity),
		UniqueCustomers: get(models.MetricUniqueCustomers),
		Receipts:        get(models.MetricReceipts),
	}
}

// PreviousDeployment finds the deployment that started immediately before
// start among rows of one store and theme. The end date is read from the
// first row of that deployment.
func PreviousDeployment(storeThemeRows []models.PlanogramRow, start time.Time) *models.Deployment {
	var prev *models.PlanogramRow
	for i := range storeThemeRows {
		row := &storeThemeRows[i]
		if row.DeploymentStart.IsZero() || !row.DeploymentStart.Before(start) {
			continue
		}
		if prev == nil || row.DeploymentStart.After(prev.DeploymentStart) {
			prev = row
		}
	}
	if prev == nil {
		return nil
	}
	d := deploymentOf(*prev)
	return &d
}

func deploymentOf(row models.PlanogramRow) models.Deployment {
	return models.Deployment{
		StoreID:   row.StoreID,
		StoreName: row.StoreName,
		ThemeName: row.ThemeName,
		Start:     row.DeploymentStart,
		End:       row.DeploymentEnd,
	}
}
