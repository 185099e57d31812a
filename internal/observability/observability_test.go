package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planogram-dashboard/internal/config"
)

func TestStartSpan_ChildInheritsTrace(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "parent")
	_, child := StartSpan(ctx, "child")

	assert.Len(t, parent.TraceID, 16)
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Same(t, parent, GetSpan(ctx))
}

func TestSpan_FinishAndLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, span := StartSpan(context.Background(), "dashboard.compute")
	span.SetTag("store", "Shibuya")
	span.SetError(errors.New("boom"))
	span.FinishAndLog(logger)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "span.operation=dashboard.compute")
	assert.Contains(t, out, "span.store=Shibuya")
	assert.Contains(t, out, "span.error=boom")
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRequestID(context.Background(), "req-1")
	ctx, span := StartSpan(ctx, "op")
	LoggerFrom(ctx, base).Info("hello")

	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "trace_id="+span.TraceID)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, &buf).Info("dropped")
	assert.Empty(t, buf.String())

	NewLogger(config.LoggerConfig{Level: "debug", Format: "text"}, &buf).Debug("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestMetrics(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/stores", "200"))
	RecordHTTPRequest("GET", "GET /api/stores", 200, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/stores", "200")))

	SetLoadedRows("planogram", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(loadedRows.WithLabelValues("planogram")))

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "planodash_loaded_rows")
}
