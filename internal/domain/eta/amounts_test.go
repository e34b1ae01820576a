package eta

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLineAmounts_NoDiscount(t *testing.T) {
	// 2 units at 100.00 with 14% VAT: 200 net, 28 tax, 228 total.
	a := ComputeLineAmounts(d("2"), d("100"), decimal.Zero, d("14"))

	assert.True(t, a.SalesTotal.Equal(d("200")), "sales total, got %s", a.SalesTotal)
	assert.True(t, a.DiscountAmount.IsZero())
	assert.True(t, a.NetTotal.Equal(d("200")))
	assert.True(t, a.TaxAmount.Equal(d("28")))
	assert.True(t, a.Total.Equal(d("228")))
}

func TestComputeLineAmounts_WithDiscount(t *testing.T) {
	// 3 units at 50.00, 10% discount, 14% VAT.
	a := ComputeLineAmounts(d("3"), d("50"), d("10"), d("14"))

	assert.True(t, a.SalesTotal.Equal(d("150")))
	assert.True(t, a.DiscountAmount.Equal(d("15")))
	assert.True(t, a.NetTotal.Equal(d("135")))
	assert.True(t, a.TaxAmount.Equal(d("18.9")))
	assert.True(t, a.Total.Equal(d("153.9")))
}

func TestComputeLineAmounts_RoundsToFivePlaces(t *testing.T) {
	// 1/3-ish arithmetic must not leak more than 5 decimal places.
	a := ComputeLineAmounts(d("0.333"), d("9.99"), d("7.77"), d("14"))

	assert.True(t, a.SalesTotal.Exponent() >= -5)
	assert.True(t, a.DiscountAmount.Exponent() >= -5)
	assert.True(t, a.TaxAmount.Exponent() >= -5)
}

func TestComputeDocumentTotals(t *testing.T) {
	lines := []LineAmounts{
		ComputeLineAmounts(d("2"), d("100"), decimal.Zero, d("14")),
		ComputeLineAmounts(d("1"), d("50"), d("20"), d("14")),
	}
	totals := ComputeDocumentTotals(lines)

	assert.True(t, totals.TotalSales.Equal(d("250")))
	assert.True(t, totals.TotalDiscount.Equal(d("10")))
	assert.True(t, totals.NetAmount.Equal(d("240")))
	assert.True(t, totals.TotalTax.Equal(d("33.6")))
	assert.True(t, totals.TotalAmount.Equal(d("273.6")))
}

func TestValidateLines(t *testing.T) {
	valid := []*entity.InvoiceLine{{
		Description: "Consulting services",
		Quantity:    d("1"),
		UnitPrice:   d("100"),
	}}
	require.NoError(t, ValidateLines(valid))

	t.Run("empty", func(t *testing.T) {
		err := ValidateLines(nil)
		require.ErrorIs(t, err, ErrInvalidInvoice)
	})

	t.Run("collects all problems", func(t *testing.T) {
		bad := []*entity.InvoiceLine{{
			Quantity:     decimal.Zero,
			UnitPrice:    d("-1"),
			DiscountRate: d("150"),
		}}
		err := ValidateLines(bad)
		require.ErrorIs(t, err, ErrInvalidInvoice)
		assert.Contains(t, err.Error(), "description")
		assert.Contains(t, err.Error(), "quantity")
		assert.Contains(t, err.Error(), "unit price")
		assert.Contains(t, err.Error(), "discount rate")
	})
}

func TestReconcileTotals(t *testing.T) {
	lines := []*entity.InvoiceLine{{
		Description: "Goods",
		Quantity:    d("2"),
		UnitPrice:   d("100"),
		TaxRate:     d("14"),
	}}

	t.Run("matching totals pass", func(t *testing.T) {
		inv := &entity.Invoice{NetTotal: d("200"), TaxTotal: d("28"), GrandTotal: d("228")}
		totals, err := ReconcileTotals(inv, lines)
		require.NoError(t, err)
		assert.True(t, totals.TotalAmount.Equal(d("228")))
	})

	t.Run("one cent drift tolerated", func(t *testing.T) {
		inv := &entity.Invoice{NetTotal: d("200.01"), TaxTotal: d("28"), GrandTotal: d("228.01")}
		_, err := ReconcileTotals(inv, lines)
		require.NoError(t, err)
	})

	t.Run("divergent totals rejected", func(t *testing.T) {
		inv := &entity.Invoice{NetTotal: d("250"), TaxTotal: d("28"), GrandTotal: d("278")}
		_, err := ReconcileTotals(inv, lines)
		require.ErrorIs(t, err, ErrInvalidInvoice)
		assert.Contains(t, err.Error(), "diverges")
	})

	t.Run("zero stored totals are not independently computed", func(t *testing.T) {
		inv := &entity.Invoice{}
		totals, err := ReconcileTotals(inv, lines)
		require.NoError(t, err)
		assert.True(t, totals.NetAmount.Equal(d("200")))
	})
}
