package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column is a canonical column name. Source files are bound to these
// positionally; header names in the files are ignored.
type Column string

const (
	ColTransactionDate Column = "transaction_date"
	ColStoreID         Column = "store_id"
	ColProductID       Column = "product_id"
	ColProductName     Column = "product_name"
	ColDivision        Column = "division"
	ColUniqueCustomers Column = "unique_customer_count"
	ColReceipts        Column = "receipt_count"
	ColSalesAmount     Column = "sales_amount"
	ColSalesQuantity   Column = "sales_quantity"

	ColThemeName       Column = "theme_name"
	ColThemeType       Column = "theme_type"
	ColStoreName       Column = "store_name"
	ColDeploymentStart Column = "deployment_start"
	ColDeploymentEnd   Column = "deployment_end"
	ColShelfSlot       Column = "shelf_slot"
	ColDisplayArea     Column = "display_area"
	ColDisplayQuantity Column = "display_quantity"
	ColOccupancy       Column = "occupancy_pct"
)

// TransactionColumns is the physical column order of the POS source.
var TransactionColumns = []Column{
	ColTransactionDate,
	ColStoreID,
	ColProductID,
	ColProductName,
	ColDivision,
	ColUniqueCustomers,
	ColReceipts,
	ColSalesAmount,
	ColSalesQuantity,
}

// PlanogramColumns is the physical column order of the planogram source.
var PlanogramColumns = []Column{
	ColThemeName,
	ColThemeType,
	ColStoreID,
	ColStoreName,
	ColDeploymentStart,
	ColDeploymentEnd,
	ColShelfSlot,
	ColProductID,
	ColProductName,
	ColDisplayArea,
	ColDisplayQuantity,
	ColOccupancy,
}

// ColumnSet is a set of columns.
type ColumnSet map[Column]struct{}

func NewColumnSet(cols ...Column) ColumnSet {
	s := make(ColumnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

func (s ColumnSet) Contains(c Column) bool {
	_, ok := s[c]
	return ok
}

// Transaction is one POS row: a store, a product and a day.
// A zero Date means the source cell could not be read as a date.
type Transaction struct {
	Date            time.Time       `json:"transaction_date"`
	StoreID         string          `json:"store_id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Division        string          `json:"division"`
	UniqueCustomers float64         `json:"unique_customer_count"`
	Receipts        float64         `json:"receipt_count"`
	SalesAmount     decimal.Decimal `json:"sales_amount"`
	SalesQuantity   float64         `json:"sales_quantity"`
}

// PlanogramRow places one product on one shelf slot for a deployment.
// Occupancy is kept as the raw source text and parsed when metrics are derived.
type PlanogramRow struct {
	ThemeName       string    `json:"theme_name"`
	ThemeType       string    `json:"theme_type"`
	StoreID         string    `json:"store_id"`
	StoreName       string    `json:"store_name"`
	DeploymentStart time.Time `json:"deployment_start"`
	DeploymentEnd   time.Time `json:"deployment_end"`
	ShelfSlot       string    `json:"shelf_slot"`
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	DisplayArea     float64   `json:"display_area"`
	DisplayQuantity float64   `json:"display_quantity"`
	Occupancy       string    `json:"occupancy_pct"`
}

// TransactionTable is a loaded POS source. Absent lists columns whose
// coercion failed entirely; pipeline stages that need them degrade.
type TransactionTable struct {
	Source string
	Rows   []Transaction
	Absent ColumnSet
}

func (t *TransactionTable) Has(c Column) bool {
	return t != nil && !t.Absent.Contains(c)
}

type PlanogramTable struct {
	Source string
	Rows   []PlanogramRow
	Absent ColumnSet
}

func (t *PlanogramTable) Has(c Column) bool {
	return t != nil && !t.Absent.Contains(c)
}
