package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/observability"
	"planogram-dashboard/internal/services"
	"planogram-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// chartPoint is one day of the selected metric.
type chartPoint struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Cumulative float64 `json:"cumulative"`
}

type chartData struct {
	Metric      models.Metric           `json:"metric"`
	MetricLabel string                  `json:"metricLabel"`
	Daily       []chartPoint            `json:"daily"`
	Trend       []chartPoint            `json:"trend"`
	TrendLabel  string                  `json:"trendLabel"`
	Breakdown   []models.BreakdownSlice `json:"breakdown"`
	Scatter     []models.ScatterPoint   `json:"scatter"`
}

func newChartData(d *models.Dashboard) chartData {
	info := d.Selection.Metric.Info()
	out := chartData{
		Metric:      info.Metric,
		MetricLabel: info.Label,
		Daily:       make([]chartPoint, len(d.Daily)),
		Trend:       make([]chartPoint, len(d.Trend)),
		TrendLabel:  d.TrendLabel,
		Breakdown:   nonNil(d.Breakdown),
		Scatter:     nonNil(d.Scatter),
	}
	for i, p := range d.Daily {
		out.Daily[i] = chartPoint{
			Date:       p.Date.Format(time.DateOnly),
			Value:      p.Daily.Value(info.Metric),
			Cumulative: p.Cumulative.Value(info.Metric),
		}
	}
	for i, p := range d.Trend {
		out.Trend[i] = chartPoint{Date: p.Date.Format(time.DateOnly), Value: p.Value}
	}
	return out
}

func renderHTML(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// HandleDashboard recomputes the dashboard for the page's signals and patches
// every region plus the chart data.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var in selectionInput
	readErr := datastar.ReadSignals(r, &in)

	sse := datastar.NewSSE(w, r)
	logger := observability.LoggerFrom(r.Context(), h.logger)
	if readErr != nil {
		h.patchError(r.Context(), sse, logger, errors.ValidationWrap(readErr, "could not read the dashboard selection"))
		return
	}

	sel, err := in.parse()
	if err != nil {
		h.patchError(r.Context(), sse, logger, err)
		return
	}

	d, err := h.analytics.Compute(r.Context(), sel)
	if err != nil {
		h.patchError(r.Context(), sse, logger, err)
		return
	}

	html, err := renderHTML(r.Context(), templates.Fragments(d))
	if err != nil {
		logger.Error("render dashboard fragments", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		logger.Debug("patch elements", "error", err)
		return
	}

	signals, err := json.Marshal(map[string]any{"chartData": newChartData(d)})
	if err != nil {
		logger.Error("marshal chart data", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Debug("patch signals", "error", err)
	}
}

// HandleOptions refreshes the selector lists for the current signals and
// clears selections that are no longer offered.
func (h *SSEHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	var sig templates.Signals
	readErr := datastar.ReadSignals(r, &sig)

	sse := datastar.NewSSE(w, r)
	logger := observability.LoggerFrom(r.Context(), h.logger)
	if readErr != nil {
		h.patchError(r.Context(), sse, logger, errors.ValidationWrap(readErr, "could not read the dashboard selection"))
		return
	}

	opts, reset, err := h.options(sig)
	if err != nil {
		h.patchError(r.Context(), sse, logger, err)
		return
	}

	html, err := renderHTML(r.Context(), templates.Selectors(opts))
	if err != nil {
		logger.Error("render selectors", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		logger.Debug("patch elements", "error", err)
		return
	}

	if len(reset) > 0 {
		signals, err := json.Marshal(reset)
		if err != nil {
			logger.Error("marshal signal reset", "error", err)
			return
		}
		if err := sse.PatchSignals(signals); err != nil {
			logger.Debug("patch signals", "error", err)
		}
	}
}

func (h *SSEHandlers) options(sig templates.Signals) (templates.Options, map[string]any, error) {
	opts := templates.Options{Selection: sig, Metrics: models.Metrics}
	reset := make(map[string]any)

	if sig.Metric != string(models.ParseMetric(sig.Metric)) {
		opts.Selection.Metric = string(models.MetricSalesAmount)
		reset["metric"] = opts.Selection.Metric
	}

	stores, err := h.analytics.Stores()
	if err != nil {
		return opts, nil, err
	}
	opts.Stores = stores
	if !slices.Contains(stores, sig.Store) {
		if sig.Store != "" {
			reset["store"], reset["theme"], reset["start"], reset["product"] = "", "", "", "all"
		}
		opts.Selection = templates.Signals{Metric: opts.Selection.Metric, Product: "all"}
		return opts, reset, nil
	}

	if opts.Themes, err = h.analytics.Themes(sig.Store); err != nil {
		return opts, nil, err
	}
	if !slices.Contains(opts.Themes, sig.Theme) {
		if sig.Theme != "" {
			reset["theme"], reset["start"], reset["product"] = "", "", "all"
		}
		opts.Selection.Theme, opts.Selection.Start, opts.Selection.Product = "", "", "all"
		return opts, reset, nil
	}

	if opts.Deployments, err = h.analytics.Deployments(sig.Store, sig.Theme); err != nil {
		return opts, nil, err
	}
	start, ok := findDeployment(opts.Deployments, sig.Start)
	if !ok {
		if sig.Start != "" {
			reset["start"], reset["product"] = "", "all"
		}
		opts.Selection.Start, opts.Selection.Product = "", "all"
		return opts, reset, nil
	}

	if opts.Products, err = h.analytics.Products(sig.Store, sig.Theme, start); err != nil {
		return opts, nil, err
	}
	if sig.Product != "all" && !slices.ContainsFunc(opts.Products, func(p models.ProductOption) bool { return p.ID == sig.Product }) {
		reset["product"] = "all"
		opts.Selection.Product = "all"
	}
	return opts, reset, nil
}

func findDeployment(deployments []models.Deployment, start string) (time.Time, bool) {
	for _, d := range deployments {
		if d.Start.Format(time.DateOnly) == start {
			return d.Start, true
		}
	}
	return time.Time{}, false
}

// patchError shows err in the notices region instead of failing the stream.
func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, logger *slog.Logger, err error) {
	level := models.NoticeWarn
	msg := "An unexpected error occurred"
	code := errors.CodeOf(err)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg = appErr.Message
	}
	if code == errors.CodeInternal {
		logger.Error("dashboard request failed", "error", err)
	} else {
		logger.Warn("dashboard request rejected", "code", code, "error", err)
	}

	html, renderErr := renderHTML(ctx, templates.Notices([]models.Notice{{Code: code, Level: level, Message: msg}}))
	if renderErr != nil {
		logger.Error("render notices", "error", renderErr)
		return
	}
	if patchErr := sse.PatchElements(html); patchErr != nil {
		logger.Debug("patch elements", "error", patchErr)
	}
}
