package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/observability"
	"planogram-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) ok(w http.ResponseWriter, r *http.Request, data any) {
	errors.WriteSuccessWithHeaders(w, h.logger, data, map[string]string{
		"Cache-Control": cacheMaxAge,
	}, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.analytics.Stores()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, nonNil(stores))
}

func (h *APIHandlers) HandleThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.analytics.Themes(strings.TrimSpace(r.URL.Query().Get("store")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, nonNil(themes))
}

func (h *APIHandlers) HandleDeployments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	store, theme := strings.TrimSpace(q.Get("store")), strings.TrimSpace(q.Get("theme"))
	if store == "" || theme == "" {
		h.fail(w, r, errors.Validation("store and theme are required"))
		return
	}

	deployments, err := h.analytics.Deployments(store, theme)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, nonNil(deployments))
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	in := selectionFromQuery(r.URL.Query())
	sel, err := in.parse()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	products, err := h.analytics.Products(sel.StoreName, sel.ThemeName, sel.Start)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, nonNil(products))
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, models.Metrics)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r.URL.Query()).parse()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.analytics.Compute(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, d)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	snap := h.analytics.Snapshot()
	switch {
	case snap == nil || snap.Planogram == nil:
		status = "unavailable"
	case snap.Transactions == nil:
		status = "degraded"
	}

	errors.WriteSuccess(w, h.logger, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	}, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	stats["load_notices"] = nonNil(h.analytics.Notices())
	errors.WriteSuccess(w, h.logger, stats, observability.GetRequestID(r.Context()))
}

// Version is reported by the health endpoint.
var Version = "1.0.0"

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
