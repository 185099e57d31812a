package display

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"planogram-dashboard/internal/models"
)

func TestYen(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "¥0"},
		{"999", "¥999"},
		{"1234567", "¥1,234,567"},
		{"1234.5", "¥1,235"},
		{"-2500", "-¥2,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Yen(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestCountAndMeasure(t *testing.T) {
	assert.Equal(t, "12,346", Count(12345.6))
	m := models.Measures{SalesAmount: decimal.NewFromInt(5000), SalesQuantity: 1200, Receipts: 8}
	assert.Equal(t, "¥5,000", Measure(m, models.MetricSalesAmount))
	assert.Equal(t, "1,200 pcs", Measure(m, models.MetricSalesQuantity))
	assert.Equal(t, "8", Measure(m, models.MetricReceipts))
}

func TestEfficiency(t *testing.T) {
	assert.Equal(t, "-", Efficiency(models.ShelfRow{}))
	assert.Equal(t, "1,234.57", Efficiency(models.ShelfRow{Efficiency: 1234.567, HasEfficiency: true}))
	assert.Equal(t, "0.13", Efficiency(models.ShelfRow{Efficiency: 0.13, HasEfficiency: true}))
	assert.Equal(t, "1.80", Efficiency(models.ShelfRow{Efficiency: 1.8, HasEfficiency: true}))
}

func TestPeriod(t *testing.T) {
	w := models.Window{
		Start: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2024-04-10 to 2024-04-13 (4 days)", Period(w))
	assert.Equal(t, "-", Period(models.Window{}))
}
