package loader

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
)

const ctxCheckEvery = 4096

// Sources are the paths of the two input files.
type Sources struct {
	Transactions string
	Planogram    string
}

// Snapshot is the immutable result of one load. Either table may be nil;
// the matching error says why.
type Snapshot struct {
	Transactions    *models.TransactionTable
	Planogram       *models.PlanogramTable
	TransactionsErr *errors.AppError
	PlanogramErr    *errors.AppError
	Notices         []models.Notice
	LoadedAt        time.Time
}

// Load reads both sources concurrently. Problems with a source never fail the
// load as a whole; they leave that table nil and are recorded on the snapshot.
// The returned error is non-nil only when ctx ends first.
func Load(ctx context.Context, src Sources, logger *slog.Logger) (*Snapshot, error) {
	snap := &Snapshot{}
	var txNotices, plNotices []models.Notice

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		table, notices, err := LoadTransactions(gctx, src.Transactions)
		if err != nil {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			snap.TransactionsErr = err
			return nil
		}
		snap.Transactions, txNotices = table, notices
		return nil
	})
	g.Go(func() error {
		table, notices, err := LoadPlanogram(gctx, src.Planogram)
		if err != nil {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			snap.PlanogramErr = err
			return nil
		}
		snap.Planogram, plNotices = table, notices
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	snap.Notices = append(txNotices, plNotices...)
	snap.LoadedAt = time.Now()

	for _, appErr := range []*errors.AppError{snap.TransactionsErr, snap.PlanogramErr} {
		if appErr != nil {
			logger.Error("data source unavailable",
				"code", appErr.Code,
				"message", appErr.Message,
				"source", appErr.Details,
				"cause", appErr.Cause,
			)
		}
	}
	for _, n := range snap.Notices {
		logger.Warn("data source degraded", "code", n.Code, "message", n.Message)
	}
	return snap, nil
}

// LoadTransactions reads and binds the POS source.
func LoadTransactions(ctx context.Context, path string) (*models.TransactionTable, []models.Notice, *errors.AppError) {
	records, appErr := readTable(ctx, path, len(models.TransactionColumns))
	if appErr != nil {
		return nil, nil, appErr
	}

	c := newCoercer(path)
	rows := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.Transaction{
			Date:            c.date(models.ColTransactionDate, rec[0]),
			StoreID:         strings.TrimSpace(rec[1]),
			ProductID:       strings.TrimSpace(rec[2]),
			ProductName:     strings.TrimSpace(rec[3]),
			Division:        strings.TrimSpace(rec[4]),
			UniqueCustomers: c.number(models.ColUniqueCustomers, rec[5]),
			Receipts:        c.number(models.ColReceipts, rec[6]),
			SalesAmount:     c.amount(models.ColSalesAmount, rec[7]),
			SalesQuantity:   c.number(models.ColSalesQuantity, rec[8]),
		})
	}

	absent, notices := c.finish(len(rows))
	return &models.TransactionTable{Source: path, Rows: rows, Absent: absent}, notices, nil
}

// LoadPlanogram reads and binds the planogram source.
func LoadPlanogram(ctx context.Context, path string) (*models.PlanogramTable, []models.Notice, *errors.AppError) {
	records, appErr := readTable(ctx, path, len(models.PlanogramColumns))
	if appErr != nil {
		return nil, nil, appErr
	}

	c := newCoercer(path)
	rows := make([]models.PlanogramRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.PlanogramRow{
			ThemeName:       strings.TrimSpace(rec[0]),
			ThemeType:       strings.TrimSpace(rec[1]),
			StoreID:         strings.TrimSpace(rec[2]),
			StoreName:       strings.TrimSpace(rec[3]),
			DeploymentStart: c.date(models.ColDeploymentStart, rec[4]),
			DeploymentEnd:   c.date(models.ColDeploymentEnd, rec[5]),
			ShelfSlot:       strings.TrimSpace(rec[6]),
			ProductID:       strings.TrimSpace(rec[7]),
			ProductName:     strings.TrimSpace(rec[8]),
			DisplayArea:     c.number(models.ColDisplayArea, rec[9]),
			DisplayQuantity: c.number(models.ColDisplayQuantity, rec[10]),
			Occupancy:       strings.TrimSpace(rec[11]),
		})
	}

	absent, notices := c.finish(len(rows))
	// Deployment windows need both ends.
	if absent.Contains(models.ColDeploymentStart) || absent.Contains(models.ColDeploymentEnd) {
		absent[models.ColDeploymentStart] = struct{}{}
		absent[models.ColDeploymentEnd] = struct{}{}
	}
	return &models.PlanogramTable{Source: path, Rows: rows, Absent: absent}, notices, nil
}

// readTable returns the data records of a CSV file whose header has exactly
// want columns. Short records are padded with empty cells.
func readTable(ctx context.Context, path string, want int) ([][]string, *errors.AppError) {
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalWrap(err, "load cancelled")
	}
	file, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.SourceNotFound(path)
		}
		return nil, errors.SchemaMismatchWrap(err, path)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.SchemaMismatch(path, 0, want)
	}
	if err != nil {
		return nil, errors.SchemaMismatchWrap(err, path)
	}
	if len(header) != want {
		return nil, errors.SchemaMismatch(path, len(header), want)
	}

	var records [][]string
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.InternalWrap(err, "load cancelled")
			}
		}

		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.SchemaMismatchWrap(err, path)
		}
		if len(rec) > want {
			return nil, errors.SchemaMismatchWrap(fmt.Errorf("line %d: expected %d fields, saw %d", line, want, len(rec)), path)
		}
		if isBlank(rec) {
			continue
		}
		for len(rec) < want {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// The 1 and 2 elements accept one or two digits, so these also read
// zero-padded dates.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04",
	"2006-1-2T15:04:05",
	time.RFC3339,
}

// ParseDate reads a civil date, dropping any time of day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// coercer converts cells to typed values and counts what it could not read.
type coercer struct {
	source string
	parsed map[models.Column]int
	failed map[models.Column]int
	dates  []models.Column
}

func newCoercer(source string) *coercer {
	return &coercer{
		source: source,
		parsed: make(map[models.Column]int),
		failed: make(map[models.Column]int),
	}
}

func (c *coercer) date(col models.Column, raw string) time.Time {
	if _, seen := c.parsed[col]; !seen {
		c.parsed[col] = 0
		c.dates = append(c.dates, col)
	}
	t, ok := ParseDate(raw)
	if ok {
		c.parsed[col]++
	} else {
		c.failed[col]++
	}
	return t
}

func (c *coercer) number(col models.Column, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.failed[col]++
		return 0
	}
	return v
}

func (c *coercer) amount(col models.Column, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		c.failed[col]++
		return decimal.Zero
	}
	return v
}

// finish reports date columns with no readable cell as absent and raises a
// notice for every column with unreadable cells.
func (c *coercer) finish(rows int) (models.ColumnSet, []models.Notice) {
	absent := models.NewColumnSet()
	var notices []models.Notice

	for _, col := range c.dates {
		if rows > 0 && c.parsed[col] == 0 {
			absent[col] = struct{}{}
			notices = append(notices, models.Notice{
				Code:    errors.CodeMissingColumn,
				Level:   models.NoticeWarn,
				Message: fmt.Sprintf("%s: column %q has no readable dates, date conversion skipped", c.source, col),
			})
			delete(c.failed, col)
		}
	}

	for _, col := range append(append([]models.Column{}, models.TransactionColumns...), models.PlanogramColumns...) {
		n, ok := c.failed[col]
		if !ok {
			continue
		}
		delete(c.failed, col)
		notices = append(notices, models.Notice{
			Code:    errors.CodeMissingColumn,
			Level:   models.NoticeWarn,
			Message: fmt.Sprintf("%s: %d unreadable value(s) in column %q", c.source, n, col),
		})
	}
	return absent, notices
}
