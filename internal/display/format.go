// Package display formats dashboard values for people: the HTML fragments
// and the terminal report share it.
package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"planogram-dashboard/internal/models"
)

// Yen renders a currency amount rounded to whole yen with thousands separators.
func Yen(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	if rounded.IsNegative() {
		return "-¥" + humanize.Comma(rounded.Neg().IntPart())
	}
	return "¥" + humanize.Comma(rounded.IntPart())
}

// Count renders a summed count rounded to a whole number.
func Count(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Measure renders one metric of m with its unit.
func Measure(m models.Measures, metric models.Metric) string {
	switch metric {
	case models.MetricSalesAmount:
		return Yen(m.SalesAmount)
	case models.MetricSalesQuantity:
		return Count(m.SalesQuantity) + " pcs"
	default:
		return Count(m.Value(metric))
	}
}

func Efficiency(row models.ShelfRow) string {
	if !row.HasEfficiency {
		return "-"
	}
	whole, frac, _ := strings.Cut(fmt.Sprintf("%.2f", row.Efficiency), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return whole + "." + frac
	}
	return humanize.Comma(n) + "." + frac
}

func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// Period renders an inclusive window with its day count.
func Period(w models.Window) string {
	if w.Start.IsZero() || w.End.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s to %s (%d days)", Date(w.Start), Date(w.End), w.Days())
}

// Since renders how long ago t was, e.g. "3 minutes ago".
func Since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Rating is the label shown next to a shelf efficiency.
func Rating(r models.ShelfRating) string {
	switch r {
	case models.RatingUnderperforming:
		return "Underperforming"
	case models.RatingStrong:
		return "Strong"
	case models.RatingAverage:
		return "Average"
	default:
		return "n/a"
	}
}
