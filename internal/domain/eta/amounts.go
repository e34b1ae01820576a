// Package eta contains pure domain rules for the Egyptian e-invoicing
// integration: line arithmetic and invoice total reconciliation. No I/O.
package eta

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
)

// ErrInvalidInvoice groups invoice validation failures.
var ErrInvalidInvoice = errors.New("invoice not valid for submission")

// Amounts are rounded to 5 decimal places on the wire; reconciliation against
// stored totals tolerates up to one cent of rounding drift.
var (
	wirePlaces       int32 = 5
	totalsTolerance        = decimal.NewFromFloat(0.01)
	hundred                = decimal.NewFromInt(100)
)

// LineAmounts holds the derived amounts of a single line, computed in the
// order the authority expects: sales total, discount, net, tax, line total.
// All values are non-negative.
type LineAmounts struct {
	SalesTotal     decimal.Decimal
	DiscountAmount decimal.Decimal
	NetTotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeLineAmounts derives all amounts for one line from quantity, unit
// price and the discount/tax percentage rates.
func ComputeLineAmounts(quantity, unitPrice, discountRate, taxRate decimal.Decimal) LineAmounts {
	salesTotal := quantity.Mul(unitPrice).Round(wirePlaces)
	discountAmount := salesTotal.Mul(discountRate.Div(hundred)).Round(wirePlaces)
	netTotal := salesTotal.Sub(discountAmount)
	taxAmount := netTotal.Mul(taxRate.Div(hundred)).Round(wirePlaces)
	return LineAmounts{
		SalesTotal:     salesTotal,
		DiscountAmount: discountAmount,
		NetTotal:       netTotal,
		TaxAmount:      taxAmount,
		Total:          netTotal.Add(taxAmount),
	}
}

// DocumentTotals aggregates per-line amounts at the document level.
type DocumentTotals struct {
	TotalSales    decimal.Decimal
	TotalDiscount decimal.Decimal
	NetAmount     decimal.Decimal
	TotalTax      decimal.Decimal // single T1/VAT group
	TotalAmount   decimal.Decimal
}

// ComputeDocumentTotals sums line amounts. TotalAmount = NetAmount + TotalTax.
func ComputeDocumentTotals(lines []LineAmounts) DocumentTotals {
	var t DocumentTotals
	t.TotalSales = decimal.Zero
	t.TotalDiscount = decimal.Zero
	t.NetAmount = decimal.Zero
	t.TotalTax = decimal.Zero
	for _, l := range lines {
		t.TotalSales = t.TotalSales.Add(l.SalesTotal)
		t.TotalDiscount = t.TotalDiscount.Add(l.DiscountAmount)
		t.NetAmount = t.NetAmount.Add(l.NetTotal)
		t.TotalTax = t.TotalTax.Add(l.TaxAmount)
	}
	t.TotalAmount = t.NetAmount.Add(t.TotalTax)
	return t
}

// ValidateLines checks that every line is structurally complete: description,
// positive quantity and non-negative unit price are mandatory.
func ValidateLines(lines []*entity.InvoiceLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: invoice must have at least one line", ErrInvalidInvoice)
	}
	var errs []error
	for i, l := range lines {
		if l.Description == "" {
			errs = append(errs, fmt.Errorf("line %d: missing description", i+1))
		}
		if l.Quantity.IsZero() || l.Quantity.IsNegative() {
			errs = append(errs, fmt.Errorf("line %d: quantity must be positive", i+1))
		}
		if l.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Errorf("line %d: unit price must not be negative", i+1))
		}
		if l.DiscountRate.IsNegative() || l.DiscountRate.GreaterThan(hundred) {
			errs = append(errs, fmt.Errorf("line %d: discount rate out of range", i+1))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

// ReconcileTotals recomputes the document totals from the lines and compares
// them with the totals stored on the invoice. The recomputation is the
// authoritative value sent to the authority; a divergence beyond the rounding
// tolerance means the stored aggregate drifted and the submission must stop.
func ReconcileTotals(invoice *entity.Invoice, lines []*entity.InvoiceLine) (DocumentTotals, error) {
	amounts := make([]LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = ComputeLineAmounts(l.Quantity, l.UnitPrice, l.DiscountRate, l.TaxRate)
	}
	totals := ComputeDocumentTotals(amounts)

	var errs []error
	if diverges(invoice.NetTotal, totals.NetAmount) {
		errs = append(errs, fmt.Errorf("stored net total (%s) diverges from recomputed (%s)",
			invoice.NetTotal.String(), totals.NetAmount.String()))
	}
	if diverges(invoice.TaxTotal, totals.TotalTax) {
		errs = append(errs, fmt.Errorf("stored tax total (%s) diverges from recomputed (%s)",
			invoice.TaxTotal.String(), totals.TotalTax.String()))
	}
	if diverges(invoice.GrandTotal, totals.TotalAmount) {
		errs = append(errs, fmt.Errorf("stored grand total (%s) diverges from recomputed (%s)",
			invoice.GrandTotal.String(), totals.TotalAmount.String()))
	}
	if len(errs) > 0 {
		return DocumentTotals{}, errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return totals, nil
}

// diverges reports whether a stored aggregate differs from the recomputed one
// beyond the rounding tolerance. A zero stored value is treated as "not
// independently computed" and accepted.
func diverges(stored, recomputed decimal.Decimal) bool {
	if stored.IsZero() {
		return false
	}
	return stored.Sub(recomputed).Abs().GreaterThan(totalsTolerance)
}
