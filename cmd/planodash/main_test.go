package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planogram-dashboard/internal/config"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/server"
)

const transactionsCSV = `date,store,product,name,division,customers,receipts,amount,quantity
2024-04-01,S01,0100,Green Tea,Drinks,3,3,300,6
2024-04-11,S01,0100,Green Tea,Drinks,4,4,450,9
2024-04-12,S01,0200,Rice Cracker,Snacks,1,1,150,3
`

const planogramCSV = `theme,type,store_id,store,start,end,slot,product,name,area,display,occupancy
Spring Tea,Seasonal,S01,Shibuya,2024-04-01,2024-04-03,A-1,0100,Green Tea,10,20,50
Spring Tea,Seasonal,S01,Shibuya,2024-04-10,2024-04-13,A-1,0100,Green Tea,10,20,25
Spring Tea,Seasonal,S01,Shibuya,2024-04-10,2024-04-13,A-2,0200,Rice Cracker,10,20,40
Autumn Nuts,Seasonal,S02,Ebisu,2024-09-01,2024-09-07,B-1,0300,Walnuts,10,20,30
`

// withData points the configuration at fresh copies of the sample files.
func withData(t *testing.T, transactions, planogram string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile = ""

	pos := filepath.Join(dir, "pos.csv")
	plan := filepath.Join(dir, "planogram.csv")
	if transactions != "" {
		require.NoError(t, os.WriteFile(pos, []byte(transactions), 0o644))
	}
	if planogram != "" {
		require.NoError(t, os.WriteFile(plan, []byte(planogram), 0o644))
	}
	t.Setenv("DATA_TRANSACTIONS_FILE", pos)
	t.Setenv("DATA_PLANOGRAM_FILE", plan)
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand(t *testing.T) {
	withData(t, transactionsCSV, planogramCSV)

	out, err := run(t, "report", "--store", "Shibuya", "--theme", "Spring Tea", "--start", "2024-04-10")
	require.NoError(t, err)

	assert.Contains(t, out, "Shibuya / Spring Tea")
	assert.Contains(t, out, "¥600")
	assert.Contains(t, out, "Compared with: 2024-04-01 to 2024-04-03 (3 days)")
}

func TestReportCommand_JSON(t *testing.T) {
	withData(t, transactionsCSV, planogramCSV)

	out, err := run(t, "report", "--store", "Shibuya", "--theme", "Spring Tea", "--start", "2024-04-10",
		"--product", "0100 (Green Tea)", "--metric", "sales_quantity", "--json")
	require.NoError(t, err)

	var d models.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "0100", d.Selection.ProductID)
	assert.Equal(t, models.MetricSalesQuantity, d.Selection.Metric)
	assert.Equal(t, "Green Tea", d.TrendLabel)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, 0.36, d.Rows[0].Efficiency)
}

func TestReportCommand_Errors(t *testing.T) {
	withData(t, transactionsCSV, "")

	_, err := run(t, "report", "--store", "Shibuya", "--theme", "Spring Tea", "--start", "2024-04-10")
	assert.ErrorContains(t, err, "planogram data is unavailable")

	_, err = run(t, "report", "--store", "Shibuya", "--theme", "Spring Tea", "--start", "10 April")
	assert.ErrorContains(t, err, "--start must be a date")

	_, err = run(t, "report", "--store", "Shibuya")
	assert.ErrorContains(t, err, `required flag(s) "start", "theme" not set`)
}

func TestCatalogCommand(t *testing.T) {
	withData(t, transactionsCSV, planogramCSV)

	out, err := run(t, "catalog", "--json")
	require.NoError(t, err)

	var deployments []models.Deployment
	require.NoError(t, json.Unmarshal([]byte(out), &deployments))
	require.Len(t, deployments, 3)
	assert.Equal(t, "Ebisu", deployments[0].StoreName)

	out, err = run(t, "catalog", "--store", "Shibuya")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-04-10")
	assert.NotContains(t, out, "Ebisu")
}

func TestCatalogCommand_MissingTransactionsStillWorks(t *testing.T) {
	withData(t, "", planogramCSV)

	out, err := run(t, "catalog", "--theme", "Autumn Nuts")
	require.NoError(t, err)
	assert.Contains(t, out, "Autumn Nuts")
	assert.NotContains(t, out, "Spring Tea")
}

func TestDashboardPage(t *testing.T) {
	withData(t, transactionsCSV, planogramCSV)
	cfg, err := config.Load("")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	analytics, err := loadAnalytics(context.Background(), cfg, logger)
	require.NoError(t, err)

	srv := server.NewServer(analytics, logger, &server.TemplateHandlers{Dashboard: dashboardPage(analytics, logger)})
	h := server.Stack(cfg, logger)(srv)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMaxAge, w.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<!DOCTYPE html>"))
	assert.Contains(t, w.Body.String(), `<option value="Ebisu">Ebisu</option>`)
	assert.Contains(t, w.Body.String(), `<option value="Shibuya">Shibuya</option>`)
}
