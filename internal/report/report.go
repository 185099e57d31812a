// Package report renders a dashboard as plain terminal text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"planogram-dashboard/internal/display"
	"planogram-dashboard/internal/models"
)

type styles struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	muted    lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	warn     lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	flagged  lipgloss.Style
}

// newStyles binds styles to w so that colour is dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#486581")),
		heading:  r.NewStyle().Bold(true).MarginTop(1),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#7b8794")),
		positive: r.NewStyle().Foreground(lipgloss.Color("#2f8132")),
		negative: r.NewStyle().Foreground(lipgloss.Color("#c62828")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		flagged:  r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#e53935")),
	}
}

// Render writes the dashboard for one deployment to w.
func Render(w io.Writer, d *models.Dashboard) error {
	s := newStyles(w)
	var b strings.Builder

	if d.Empty {
		fmt.Fprintf(&b, "%s\n", s.title.Render("No data"))
		fmt.Fprintf(&b, "No planogram rows for %s / %s starting %s.\n",
			d.Selection.StoreName, d.Selection.ThemeName, display.Date(d.Selection.Start))
		writeNotices(&b, s, d.Notices)
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%s\n", s.title.Render(d.Deployment.StoreName+" / "+d.Deployment.ThemeName))
	fmt.Fprintf(&b, "Deployment:    %s\n", display.Period(d.Deployment.Window()))
	if d.Previous != nil {
		fmt.Fprintf(&b, "Compared with: %s\n", display.Period(d.Previous.Window()))
	} else {
		fmt.Fprintf(&b, "%s\n", s.muted.Render("No previous deployment of this theme at this store."))
	}

	b.WriteString(s.heading.Render("Summary") + "\n")
	b.WriteString(summaryTable(s, d) + "\n")

	b.WriteString(s.heading.Render("Shelves") + "\n")
	b.WriteString(shelfTable(s, d) + "\n")

	info := d.Selection.Metric.Info()
	if len(d.Daily) > 0 {
		b.WriteString(s.heading.Render("Daily "+strings.ToLower(info.Label)) + "\n")
		b.WriteString(dailyTable(s, d, info) + "\n")
	}
	if d.Selection.ProductID != "" && len(d.Trend) > 0 {
		b.WriteString(s.heading.Render("Sales amount trend: "+d.TrendLabel) + "\n")
		b.WriteString(trendTable(s, d.Trend) + "\n")
	}
	if len(d.Breakdown) > 0 {
		b.WriteString(s.heading.Render(info.Label+" by product") + "\n")
		b.WriteString(breakdownTable(s, d.Breakdown, info) + "\n")
	}

	writeNotices(&b, s, d.Notices)
	_, err := io.WriteString(w, b.String())
	return err
}

func newTable(s styles, flagged func(row int) bool) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case flagged != nil && flagged(row):
				return s.flagged
			default:
				return s.cell
			}
		})
}

func summaryTable(s styles, d *models.Dashboard) string {
	t := newTable(s, nil).Headers("Metric", "Current", "Previous", "Daily avg change")
	for _, info := range models.Metrics {
		prior := "-"
		if d.Previous != nil {
			prior = display.Measure(d.Prior, info.Metric)
		}
		t.Row(info.Label, display.Measure(d.Current, info.Metric), prior, changeText(s, d.Changes.Get(info.Metric)))
	}
	return t.String()
}

func changeText(s styles, c models.Change) string {
	switch c.Direction {
	case models.ChangePositive:
		return s.positive.Render(c.Display)
	case models.ChangeNegative:
		return s.negative.Render(c.Display)
	default:
		return s.muted.Render(c.Display)
	}
}

func shelfTable(s styles, d *models.Dashboard) string {
	t := newTable(s, func(row int) bool {
		return row < len(d.Rows) && d.Rows[row].Rating == models.RatingUnderperforming
	}).Headers("Shelf", "Product", "Occupancy", "Sales", "Qty", "Efficiency", "Rating")

	for _, r := range d.Rows {
		label := r.ProductID
		if r.ProductName != "" {
			label += " " + r.ProductName
		}
		t.Row(
			r.ShelfSlot,
			label,
			r.OccupancyDisplay,
			display.Yen(r.Measures.SalesAmount),
			display.Count(r.Measures.SalesQuantity),
			display.Efficiency(r),
			display.Rating(r.Rating),
		)
	}
	t.Row("Total", "", "", display.Yen(d.TableTotals.SalesAmount), display.Count(d.TableTotals.SalesQuantity), "", "")
	return t.String()
}

func dailyTable(s styles, d *models.Dashboard, info models.MetricInfo) string {
	t := newTable(s, nil).Headers("Date", "Daily", "Cumulative")
	for _, p := range d.Daily {
		t.Row(display.Date(p.Date), display.Measure(p.Daily, info.Metric), display.Measure(p.Cumulative, info.Metric))
	}
	return t.String()
}

func trendTable(s styles, trend []models.TrendPoint) string {
	t := newTable(s, nil).Headers("Date", "Sales amount")
	for _, p := range trend {
		t.Row(display.Date(p.Date), display.Yen(decimal.NewFromFloat(p.Value)))
	}
	return t.String()
}

func breakdownTable(s styles, parts []models.BreakdownSlice, info models.MetricInfo) string {
	var total float64
	for _, sl := range parts {
		total += sl.Value
	}
	t := newTable(s, nil).Headers("Product", info.Label, "Share")
	for _, sl := range parts {
		share := "-"
		if total > 0 {
			share = fmt.Sprintf("%.1f%%", sl.Value/total*100)
		}
		t.Row(sl.ProductName, formatValue(sl.Value, info.Metric), share)
	}
	return t.String()
}

func formatValue(v float64, metric models.Metric) string {
	if metric == models.MetricSalesAmount {
		return display.Yen(decimal.NewFromFloat(v))
	}
	return display.Count(v)
}

func writeNotices(b *strings.Builder, s styles, notices []models.Notice) {
	if len(notices) == 0 {
		return
	}
	b.WriteString(s.heading.Render("Notices") + "\n")
	for _, n := range notices {
		line := fmt.Sprintf("[%s] %s", n.Code, n.Message)
		if n.Level == models.NoticeWarn {
			line = s.warn.Render(line)
		}
		b.WriteString("  " + line + "\n")
	}
}

// Catalog writes the deployments of every store and theme.
func Catalog(w io.Writer, deployments []models.Deployment) error {
	s := newStyles(w)
	if len(deployments) == 0 {
		_, err := io.WriteString(w, "No deployments found.\n")
		return err
	}
	t := newTable(s, nil).Headers("Store", "Theme", "Start", "End", "Days")
	for _, d := range deployments {
		days := "-"
		if !d.Start.IsZero() && !d.End.IsZero() {
			days = fmt.Sprint(d.Window().Days())
		}
		t.Row(d.StoreName, d.ThemeName, display.Date(d.Start), display.Date(d.End), days)
	}
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}
