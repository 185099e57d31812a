package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planogram-dashboard/internal/models"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func sampleDashboard() *models.Dashboard {
	start := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC)
	dep := &models.Deployment{StoreID: "S01", StoreName: "Shibuya", ThemeName: "Spring Tea", Start: start, End: end}
	return &models.Dashboard{
		Selection:  models.Selection{StoreName: "Shibuya", ThemeName: "Spring Tea", Start: start, Metric: models.MetricSalesQuantity},
		Deployment: dep,
		Rows: []models.ShelfRow{
			{
				PlanogramRow:     models.PlanogramRow{ShelfSlot: "A-1", ProductID: "0100", ProductName: "Green <Tea>"},
				Measures:         models.Measures{SalesAmount: decimal.NewFromInt(12000), SalesQuantity: 45},
				OccupancyDisplay: "25.0%",
				Efficiency:       1.8,
				HasEfficiency:    true,
				Rating:           models.RatingStrong,
			},
			{
				PlanogramRow: models.PlanogramRow{ShelfSlot: "A-2", ProductID: "0200", ProductName: "Rice Cracker"},
				Rating:       models.RatingUnderperforming,
			},
		},
		Current:     models.Measures{SalesAmount: decimal.NewFromInt(12000), SalesQuantity: 45},
		TableTotals: models.Measures{SalesAmount: decimal.NewFromInt(12000), SalesQuantity: 45},
		Changes: models.ChangeSet{
			SalesQuantity: models.Change{Direction: models.ChangePositive, Display: "+12.5%"},
		},
	}
}

func TestFragments(t *testing.T) {
	html := renderString(t, Fragments(sampleDashboard()))

	for _, id := range []string{"deployment-header", "summary-cards", "shelf-table", "notices"} {
		assert.Contains(t, html, `id="`+id+`"`)
	}
	assert.Contains(t, html, "2024-04-10 to 2024-04-13 (4 days)")
	assert.Contains(t, html, "No previous deployment")
	assert.Contains(t, html, "Green &lt;Tea&gt;")
	assert.Contains(t, html, `<tr class="underperforming">`)
	assert.Contains(t, html, "¥12,000")
	assert.Contains(t, html, "1.80")
}

func TestSummaryCards_SelectedMetricFirst(t *testing.T) {
	html := renderString(t, SummaryCards(sampleDashboard()))

	first := strings.Index(html, "Sales quantity")
	second := strings.Index(html, "Sales amount")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)
	assert.Equal(t, 4, strings.Count(html, "<h3>"))
	// html/template escapes the plus sign.
	assert.Contains(t, html, `class="change-positive">&#43;12.5%`)
}

func TestFragments_Empty(t *testing.T) {
	d := &models.Dashboard{
		Selection: models.Selection{StoreName: "Shibuya", ThemeName: "Winter", Start: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		Empty:     true,
		Notices:   []models.Notice{{Level: models.NoticeInfo, Message: "nothing here"}},
	}
	html := renderString(t, Fragments(d))

	assert.Contains(t, html, "No planogram rows for Shibuya / Winter starting 2024-01-05")
	assert.NotContains(t, html, "<table>")
	assert.Contains(t, html, `<li class="notice-info">nothing here</li>`)
}

func TestSelectors(t *testing.T) {
	opts := Options{
		Selection: Signals{Store: "Shibuya", Theme: "Spring Tea", Start: "2024-04-10", Metric: "receipts", Product: "0100"},
		Stores:    []string{"Ebisu", "Shibuya"},
		Themes:    []string{"Spring Tea"},
		Deployments: []models.Deployment{{
			Start: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC),
		}},
		Products: []models.ProductOption{{ID: "0100", Name: "Green Tea", Label: "0100 (Green Tea)"}},
		Metrics:  models.Metrics,
	}
	html := renderString(t, Selectors(opts))

	assert.Contains(t, html, `<option value="Shibuya" selected>`)
	assert.Contains(t, html, `<option value="2024-04-10" selected>2024-04-10 to 2024-04-13</option>`)
	assert.Contains(t, html, `<option value="receipts" selected>Receipts</option>`)
	assert.Contains(t, html, `<option value="0100" selected>0100 (Green Tea)</option>`)
}

func TestDashboardPage(t *testing.T) {
	html := renderString(t, Dashboard(PageData{
		Options:  Options{Stores: []string{"Shibuya"}, Metrics: models.Metrics, Selection: Signals{Metric: "sales_amount", Product: "all"}},
		LoadedAt: time.Now(),
	}))

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "datastar.js")
	assert.Contains(t, html, `id="selectors"`)
	assert.Contains(t, html, `data-init="@get('/sse/options')"`)
}
