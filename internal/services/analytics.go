package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/loader"
	"planogram-dashboard/internal/models"
	"planogram-dashboard/internal/observability"
	"planogram-dashboard/internal/pipeline"
)

// Analytics owns the loaded snapshot and answers catalog and dashboard
// queries against it. The snapshot is replaced whole and never mutated, so
// readers need no locking.
type Analytics struct {
	snapshot     atomic.Pointer[loader.Snapshot]
	computations atomic.Int64
	logger       *slog.Logger
}

func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{logger: logger}
}

// Load reads both sources and installs the result. Missing or malformed
// sources do not fail the load; see Snapshot for what survived.
func (a *Analytics) Load(ctx context.Context, src loader.Sources) error {
	start := time.Now()
	a.logger.Info("loading data sources",
		"transactions", src.Transactions,
		"planogram", src.Planogram,
	)

	snap, err := loader.Load(ctx, src, a.logger)
	if err != nil {
		return err
	}
	a.SetSnapshot(snap)

	a.logger.Info("data sources loaded",
		"transaction_rows", rowCount(snap.Transactions),
		"planogram_rows", planogramRowCount(snap.Planogram),
		"notices", len(snap.Notices),
		"duration", time.Since(start),
	)
	return nil
}

// SetSnapshot installs an already loaded snapshot.
func (a *Analytics) SetSnapshot(snap *loader.Snapshot) {
	a.snapshot.Store(snap)

	observability.SetLoadedRows("transactions", rowCount(snap.Transactions))
	observability.SetLoadedRows("planogram", planogramRowCount(snap.Planogram))
	for _, appErr := range []*errors.AppError{snap.TransactionsErr, snap.PlanogramErr} {
		if appErr != nil {
			observability.RecordLoadIssue(string(appErr.Code))
		}
	}
	for _, n := range snap.Notices {
		observability.RecordLoadIssue(string(n.Code))
	}
}

func (a *Analytics) Snapshot() *loader.Snapshot {
	return a.snapshot.Load()
}

// planogram returns the snapshot when the planogram table is usable.
func (a *Analytics) planogram() (*loader.Snapshot, error) {
	snap := a.snapshot.Load()
	if snap == nil {
		return nil, errors.ServiceUnavailable("data has not been loaded yet")
	}
	if snap.Planogram == nil {
		msg := "planogram data is unavailable"
		if snap.PlanogramErr != nil {
			return nil, errors.ServiceUnavailableWrap(snap.PlanogramErr, msg)
		}
		return nil, errors.ServiceUnavailable(msg)
	}
	return snap, nil
}

func (a *Analytics) Stores() ([]string, error) {
	snap, err := a.planogram()
	if err != nil {
		return nil, err
	}
	return pipeline.Stores(snap.Planogram), nil
}

func (a *Analytics) Themes(storeName string) ([]string, error) {
	snap, err := a.planogram()
	if err != nil {
		return nil, err
	}
	return pipeline.Themes(snap.Planogram, storeName), nil
}

func (a *Analytics) Deployments(storeName, themeName string) ([]models.Deployment, error) {
	snap, err := a.planogram()
	if err != nil {
		return nil, err
	}
	return pipeline.Deployments(snap.Planogram, storeName, themeName), nil
}

// Products lists the products shelved in one deployment.
func (a *Analytics) Products(storeName, themeName string, start time.Time) ([]models.ProductOption, error) {
	snap, err := a.planogram()
	if err != nil {
		return nil, err
	}
	rows := pipeline.DeploymentRows(snap.Planogram.Rows, storeName, themeName, start)
	return pipeline.ProductOptions(rows), nil
}

// Compute derives the dashboard for sel from the current snapshot.
func (a *Analytics) Compute(ctx context.Context, sel models.Selection) (*models.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.compute")
	logger := observability.LoggerFrom(ctx, a.logger)
	defer span.FinishAndLog(logger)

	span.SetTag("store", sel.StoreName)
	span.SetTag("theme", sel.ThemeName)
	span.SetTag("start", sel.Start.Format(time.DateOnly))

	start := time.Now()
	d, err := pipeline.Compute(a.snapshot.Load(), sel)
	a.computations.Add(1)
	if err != nil {
		span.SetError(err)
		observability.RecordDashboard(string(errors.CodeOf(err)), time.Since(start))
		return nil, err
	}

	outcome := "ok"
	if d.Empty {
		outcome = "empty"
	}
	span.SetTag("rows", strconv.Itoa(len(d.Rows)))
	observability.RecordDashboard(outcome, time.Since(start))

	for _, n := range d.Notices {
		logger.Debug("dashboard notice", "code", n.Code, "level", n.Level, "message", n.Message)
	}
	return d, nil
}

// Notices returns the problems recorded while loading.
func (a *Analytics) Notices() []models.Notice {
	snap := a.snapshot.Load()
	if snap == nil {
		return nil
	}
	notices := append([]models.Notice(nil), snap.Notices...)
	for _, appErr := range []*errors.AppError{snap.TransactionsErr, snap.PlanogramErr} {
		if appErr != nil {
			notices = append(notices, models.Notice{
				Code:    appErr.Code,
				Level:   models.NoticeWarn,
				Message: appErr.Message,
			})
		}
	}
	return notices
}

// Stats reports what is loaded, for monitoring.
func (a *Analytics) Stats() map[string]any {
	snap := a.snapshot.Load()
	stats := map[string]any{
		"loaded":       snap != nil,
		"computations": a.computations.Load(),
	}
	if snap == nil {
		return stats
	}
	stats["loaded_at"] = snap.LoadedAt
	stats["transaction_rows"] = rowCount(snap.Transactions)
	stats["planogram_rows"] = planogramRowCount(snap.Planogram)
	stats["transactions_available"] = snap.Transactions != nil
	stats["planogram_available"] = snap.Planogram != nil
	stats["notices"] = len(a.Notices())
	if snap.Planogram != nil {
		stats["stores"] = len(pipeline.Stores(snap.Planogram))
	}
	return stats
}

func rowCount(t *models.TransactionTable) int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func planogramRowCount(t *models.PlanogramTable) int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
