package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planogram-dashboard/internal/loader"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func day(d int) time.Time {
	return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC)
}

func testSnapshot() *loader.Snapshot {
	shelf := func(start, end time.Time, slot, id, name, occ string) models.PlanogramRow {
		return models.PlanogramRow{
			ThemeName: "Spring Tea", ThemeType: "Seasonal", StoreID: "S01", StoreName: "Shibuya",
			DeploymentStart: start, DeploymentEnd: end, ShelfSlot: slot,
			ProductID: id, ProductName: name, Occupancy: occ,
		}
	}
	sale := func(date time.Time, id, name string, amount int64, qty float64) models.Transaction {
		return models.Transaction{
			Date: date, StoreID: "S01", ProductID: id, ProductName: name,
			SalesAmount: decimal.NewFromInt(amount), SalesQuantity: qty, UniqueCustomers: 1, Receipts: 1,
		}
	}
	return &loader.Snapshot{
		Planogram: &models.PlanogramTable{Rows: []models.PlanogramRow{
			shelf(day(1), day(3), "A-1", "0100", "Green Tea", "50"),
			shelf(day(10), day(13), "A-1", "0100", "Green Tea", "25"),
			shelf(day(10), day(13), "A-2", "0200", "Rice Cracker", "40"),
		}},
		Transactions: &models.TransactionTable{Rows: []models.Transaction{
			sale(day(2), "0100", "Green Tea", 300, 3),
			sale(day(10), "0100", "Green Tea", 200, 4),
			sale(day(11), "0200", "Rice Cracker", 100, 1),
		}},
		LoadedAt: time.Now(),
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(testLogger())
	a.SetSnapshot(testSnapshot())
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestAPIHandlers_Catalog(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := get(h.HandleStores, "/api/stores")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMaxAge, w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `["Shibuya"]`, string(decode(t, w).Data))

	w = get(h.HandleThemes, "/api/themes?store=Shibuya")
	assert.JSONEq(t, `["Spring Tea"]`, string(decode(t, w).Data))

	w = get(h.HandleThemes, "/api/themes?store=Nowhere")
	assert.JSONEq(t, `[]`, string(decode(t, w).Data))

	w = get(h.HandleDeployments, "/api/deployments?store=Shibuya&theme=Spring+Tea")
	require.Equal(t, http.StatusOK, w.Code)
	var deployments []models.Deployment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &deployments))
	require.Len(t, deployments, 2)
	assert.Equal(t, day(13), deployments[1].End)

	w = get(h.HandleProducts, "/api/products?store=Shibuya&theme=Spring+Tea&start=2024-04-10")
	var products []models.ProductOption
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &products))
	require.Len(t, products, 2)
	assert.Equal(t, "0200 (Rice Cracker)", products[1].Label)
}

func TestAPIHandlers_DeploymentsRequiresStoreAndTheme(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := get(h.HandleDeployments, "/api/deployments?store=Shibuya")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
}

func TestAPIHandlers_Dashboard(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := get(h.HandleDashboard, "/api/dashboard?store=Shibuya&theme=Spring+Tea&start=2024-04-10&metric=sales_quantity&product=0100+(Green+Tea)")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var d models.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &d))
	assert.Equal(t, models.MetricSalesQuantity, d.Selection.Metric)
	assert.Equal(t, "0100", d.Selection.ProductID)
	assert.Equal(t, "300", d.Current.SalesAmount.String())
	assert.Equal(t, "300", d.Prior.SalesAmount.String())
	assert.Len(t, d.Rows, 2)
	assert.Equal(t, "Green Tea", d.TrendLabel)
	require.Len(t, d.Trend, 1)
	assert.Equal(t, 200.0, d.Trend[0].Value)
}

func TestAPIHandlers_DashboardValidation(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name   string
		query  string
		expect string
	}{
		{"missing everything", "", "store is required; theme is required; start is required"},
		{"bad date", "store=Shibuya&theme=Spring+Tea&start=10/04/2024", "start must be a date like 2006-01-02"},
		{"bad metric", "store=Shibuya&theme=Spring+Tea&start=2024-04-10&metric=profit", "metric must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(h.HandleDashboard, "/api/dashboard?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Contains(t, env.Error.Message, tt.expect)
		})
	}
}

func TestAPIHandlers_Unavailable(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(testLogger()), testLogger())

	w := get(h.HandleStores, "/api/stores")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decode(t, w).Error.Code)

	w = get(h.HandleHealth, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"status":"unavailable"`)
}

func TestAPIHandlers_HealthAndStats(t *testing.T) {
	a := services.NewAnalytics(testLogger())
	snap := testSnapshot()
	snap.Transactions = nil
	a.SetSnapshot(snap)
	h := NewAPIHandlers(a, testLogger())

	w := get(h.HandleHealth, "/health")
	assert.Contains(t, string(decode(t, w).Data), `"status":"degraded"`)

	w = get(h.HandleStats, "/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Equal(t, 3.0, stats["planogram_rows"])
	assert.Equal(t, false, stats["transactions_available"])
	assert.Equal(t, []any{}, stats["load_notices"])
}

func sseRequest(t *testing.T, h http.HandlerFunc, path string, signals any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(signals)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, path+"?"+url.Values{"datastar": {string(raw)}}.Encode(), nil))
	return w
}

func TestSSEHandlers_Dashboard(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := sseRequest(t, h.HandleDashboard, "/sse/dashboard", map[string]any{
		"store": "Shibuya", "theme": "Spring Tea", "start": "2024-04-10", "metric": "sales_amount", "product": "all",
	})

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: datastar-patch-elements")
	assert.Contains(t, body, `id="deployment-header"`)
	assert.Contains(t, body, `id="shelf-table"`)
	assert.Contains(t, body, "¥200")
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"chartData"`)
	assert.Contains(t, body, `"trendLabel":"All products"`)
}

func TestSSEHandlers_DashboardInvalidSelection(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := sseRequest(t, h.HandleDashboard, "/sse/dashboard", map[string]any{"store": "Shibuya"})

	body := w.Body.String()
	assert.Contains(t, body, `id="notices"`)
	assert.Contains(t, body, "theme is required")
	assert.NotContains(t, body, "chartData")
}

func TestSSEHandlers_Options(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := sseRequest(t, h.HandleOptions, "/sse/options", map[string]any{
		"store": "Shibuya", "theme": "Spring Tea", "start": "2024-04-10", "metric": "sales_amount", "product": "0200",
	})
	body := w.Body.String()
	assert.Contains(t, body, `id="selectors"`)
	assert.Contains(t, body, `<option value="2024-04-10" selected>`)
	assert.Contains(t, body, `<option value="0200" selected>0200 (Rice Cracker)</option>`)
	assert.NotContains(t, body, "datastar-patch-signals")
}

func TestSSEHandlers_OptionsResetsStaleSelection(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := sseRequest(t, h.HandleOptions, "/sse/options", map[string]any{
		"store": "Shibuya", "theme": "Autumn", "start": "2024-04-10", "metric": "sales_amount", "product": "0200",
	})
	body := w.Body.String()
	assert.Contains(t, body, "event: datastar-patch-signals")
	assert.Contains(t, body, `"theme":""`)
	assert.Contains(t, body, `"product":"all"`)
}

func TestSSEHandlers_UnreadableSignals(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())
	target := "?" + url.Values{"datastar": {`{"store":`}}.Encode()

	for name, handler := range map[string]http.HandlerFunc{
		"dashboard": h.HandleDashboard,
		"options":   h.HandleOptions,
	} {
		t.Run(name, func(t *testing.T) {
			w := get(handler, "/sse/"+name+target)

			assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.Contains(t, body, "event: datastar-patch-elements")
			assert.Contains(t, body, `id="notices"`)
			assert.Contains(t, body, "could not read the dashboard selection")
			assert.NotContains(t, body, `id="selectors"`)
		})
	}
}
