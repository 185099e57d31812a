package models

import (
	"time"

	"github.com/shopspring/decimal"

	"planogram-dashboard/internal/errors"
)

// Metric names one of the four POS measures.
type Metric string

const (
	MetricSalesAmount     Metric = "sales_amount"
	MetricSalesQuantity   Metric = "sales_quantity"
	MetricUniqueCustomers Metric = "unique_customers"
	MetricReceipts        Metric = "receipts"
)

type MetricInfo struct {
	Metric Metric `json:"metric"`
	Label  string `json:"label"`
	Unit   string `json:"unit"`
}

// Metrics lists the chartable measures in display order.
var Metrics = []MetricInfo{
	{Metric: MetricSalesAmount, Label: "Sales amount", Unit: "JPY"},
	{Metric: MetricSalesQuantity, Label: "Sales quantity", Unit: "pcs"},
	{Metric: MetricUniqueCustomers, Label: "Unique customers"},
	{Metric: MetricReceipts, Label: "Receipts"},
}

// ParseMetric falls back to sales amount for empty or unknown names.
func ParseMetric(s string) Metric {
	for _, m := range Metrics {
		if string(m.Metric) == s {
			return m.Metric
		}
	}
	return MetricSalesAmount
}

func (m Metric) Info() MetricInfo {
	for _, info := range Metrics {
		if info.Metric == m {
			return info
		}
	}
	return Metrics[0]
}

// Measures are the four summable POS measures.
type Measures struct {
	SalesAmount     decimal.Decimal `json:"sales_amount"`
	SalesQuantity   float64         `json:"sales_quantity"`
	UniqueCustomers float64         `json:"unique_customers"`
	Receipts        float64         `json:"receipts"`
}

func MeasuresOf(tx Transaction) Measures {
	return Measures{
		SalesAmount:     tx.SalesAmount,
		SalesQuantity:   tx.SalesQuantity,
		UniqueCustomers: tx.UniqueCustomers,
		Receipts:        tx.Receipts,
	}
}

func (m Measures) Add(o Measures) Measures {
	return Measures{
		SalesAmount:     m.SalesAmount.Add(o.SalesAmount),
		SalesQuantity:   m.SalesQuantity + o.SalesQuantity,
		UniqueCustomers: m.UniqueCustomers + o.UniqueCustomers,
		Receipts:        m.Receipts + o.Receipts,
	}
}

func (m Measures) Value(metric Metric) float64 {
	switch metric {
	case MetricSalesQuantity:
		return m.SalesQuantity
	case MetricUniqueCustomers:
		return m.UniqueCustomers
	case MetricReceipts:
		return m.Receipts
	default:
		return m.SalesAmount.InexactFloat64()
	}
}

func (m Measures) IsZero() bool {
	return m.SalesAmount.IsZero() && m.SalesQuantity == 0 && m.UniqueCustomers == 0 && m.Receipts == 0
}

type ShelfRating string

const (
	RatingUnderperforming ShelfRating = "underperforming"
	RatingAverage         ShelfRating = "average"
	RatingStrong          ShelfRating = "strong"
	RatingUnavailable     ShelfRating = "unavailable"
)

// ShelfRow is a planogram row enriched with the POS activity inside its own
// deployment window. Enriched is false when the join could not run, in which
// case Measures are zero and no efficiency is known.
type ShelfRow struct {
	PlanogramRow
	Measures         Measures    `json:"measures"`
	Enriched         bool        `json:"enriched"`
	OccupancyValue   float64     `json:"occupancy_value"`
	OccupancyDisplay string      `json:"occupancy_display"`
	Efficiency       float64     `json:"shelf_efficiency"`
	HasEfficiency    bool        `json:"has_efficiency"`
	Rating           ShelfRating `json:"shelf_rating"`
}

// Window is an inclusive date interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days counts calendar days in the window, both ends included.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start)/(24*time.Hour)) + 1
}

// Deployment identifies one display placement: a store, a theme and a start date.
type Deployment struct {
	StoreID   string    `json:"store_id"`
	StoreName string    `json:"store_name"`
	ThemeName string    `json:"theme_name"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

func (d Deployment) Window() Window {
	return Window{Start: d.Start, End: d.End}
}

type ChangeDirection string

const (
	ChangePositive      ChangeDirection = "positive"
	ChangeNegative      ChangeDirection = "negative"
	ChangeNeutral       ChangeDirection = "neutral"
	ChangeNotApplicable ChangeDirection = "not_applicable"
)

// Change is the period-over-period change of a daily average.
type Change struct {
	Percent   float64         `json:"percent"`
	Infinite  bool            `json:"infinite"`
	Direction ChangeDirection `json:"direction"`
	Display   string          `json:"display"`
}

type ChangeSet struct {
	SalesAmount     Change `json:"sales_amount"`
	SalesQuantity   Change `json:"sales_quantity"`
	UniqueCustomers Change `json:"unique_customers"`
	Receipts        Change `json:"receipts"`
}

func (c ChangeSet) Get(metric Metric) Change {
	switch metric {
	case MetricSalesQuantity:
		return c.SalesQuantity
	case MetricUniqueCustomers:
		return c.UniqueCustomers
	case MetricReceipts:
		return c.Receipts
	default:
		return c.SalesAmount
	}
}

type DailyPoint struct {
	Date       time.Time `json:"date"`
	Daily      Measures  `json:"daily"`
	Cumulative Measures  `json:"cumulative"`
}

type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type BreakdownSlice struct {
	ProductName string  `json:"product_name"`
	Value       float64 `json:"value"`
}

type ScatterPoint struct {
	ProductName string  `json:"product_name"`
	Occupancy   float64 `json:"occupancy"`
	SalesAmount float64 `json:"sales_amount"`
}

type ProductOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type NoticeLevel string

const (
	NoticeInfo NoticeLevel = "info"
	NoticeWarn NoticeLevel = "warn"
)

// Notice reports a stage that degraded instead of failing.
type Notice struct {
	Code    errors.ErrorCode `json:"code"`
	Level   NoticeLevel      `json:"level"`
	Message string           `json:"message"`
}

// Selection is what the analyst picked. ProductID empty means all products.
type Selection struct {
	StoreName string    `json:"store"`
	ThemeName string    `json:"theme"`
	Start     time.Time `json:"start"`
	Metric    Metric    `json:"metric"`
	ProductID string    `json:"product"`
}

// Dashboard is everything the presentation layer renders for one selection.
type Dashboard struct {
	Selection   Selection        `json:"selection"`
	Empty       bool             `json:"empty"`
	Deployment  *Deployment      `json:"deployment,omitempty"`
	Previous    *Deployment      `json:"previous,omitempty"`
	Rows        []ShelfRow       `json:"rows"`
	Current     Measures         `json:"current"`
	Prior       Measures         `json:"prior"`
	TableTotals Measures         `json:"table_totals"`
	Changes     ChangeSet        `json:"changes"`
	Daily       []DailyPoint     `json:"daily"`
	Trend       []TrendPoint     `json:"trend"`
	TrendLabel  string           `json:"trend_label"`
	Breakdown   []BreakdownSlice `json:"breakdown"`
	Scatter     []ScatterPoint   `json:"scatter"`
	Products    []ProductOption  `json:"products"`
	Notices     []Notice         `json:"notices"`
}
