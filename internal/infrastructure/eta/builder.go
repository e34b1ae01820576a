package eta

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	dometa "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/eta"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

// DocumentBuilder maps an internal invoice plus its lines into the authority's
// canonical document. Pure transformation: no I/O, fails only on structurally
// invalid input or on totals that diverge from its own recomputation. The
// issuer block always comes from the company profile, never from the invoice.
type DocumentBuilder struct {
	company config.CompanyConfig
}

// NewDocumentBuilder builds the mapper with the issuer profile.
func NewDocumentBuilder(company config.CompanyConfig) *DocumentBuilder {
	return &DocumentBuilder{company: company}
}

// Build produces the canonical document for one invoice. The recomputed
// totals are what gets sent; stored invoice aggregates are only trusted after
// reconciliation (see dometa.ReconcileTotals).
func (b *DocumentBuilder) Build(invoice *entity.Invoice, lines []*entity.InvoiceLine) (*CanonicalDocument, error) {
	if invoice == nil {
		return nil, fmt.Errorf("%w: nil invoice", dometa.ErrInvalidInvoice)
	}
	if err := dometa.ValidateLines(lines); err != nil {
		return nil, err
	}
	totals, err := dometa.ReconcileTotals(invoice, lines)
	if err != nil {
		return nil, err
	}

	currency := invoice.Currency
	if currency == "" {
		currency = CurrencyEGP
	}

	docLines := make([]DocumentLine, len(lines))
	for i, l := range lines {
		amounts := dometa.ComputeLineAmounts(l.Quantity, l.UnitPrice, l.DiscountRate, l.TaxRate)

		itemType := l.ItemType
		if itemType == "" {
			itemType = entity.ItemTypeGoodsServices
		}
		unitType := l.UnitType
		if unitType == "" {
			unitType = entity.UnitTypeEach
		}

		docLines[i] = DocumentLine{
			Description: nfc(l.Description),
			ItemType:    itemType,
			ItemCode:    l.ItemCode,
			UnitType:    unitType,
			Quantity:    amt(l.Quantity),
			UnitValue: UnitValue{
				CurrencySold: currency,
				AmountEGP:    amt(l.UnitPrice),
			},
			SalesTotal:       amt(amounts.SalesTotal),
			Total:            amt(amounts.Total),
			ValueDifference:  0,
			TotalTaxableFees: 0,
			NetTotal:         amt(amounts.NetTotal),
			Discount: Discount{
				Rate:   amt(l.DiscountRate),
				Amount: amt(amounts.DiscountAmount),
			},
			TaxableItems: []TaxableItem{{
				TaxType: TaxTypeVAT,
				Amount:  amt(amounts.TaxAmount),
				SubType: TaxSubTypeVAT,
				Rate:    amt(l.TaxRate),
			}},
		}
	}

	receiverType := invoice.ClientType
	if receiverType == "" {
		receiverType = PartyTypeBusiness
	}

	doc := &CanonicalDocument{
		Issuer: Party{
			Type: PartyTypeBusiness,
			ID:   b.company.TaxNumber,
			Name: nfc(b.company.Name),
			Address: Address{
				BranchID:       b.company.BranchID,
				Country:        b.company.Country,
				Governate:      nfc(b.company.Governate),
				RegionCity:     nfc(b.company.City),
				Street:         nfc(b.company.Street),
				BuildingNumber: b.company.BuildingNumber,
			},
			Phone: b.company.Phone,
			Email: b.company.Email,
		},
		Receiver: Party{
			Type: receiverType,
			ID:   invoice.ClientTaxNumber,
			Name: nfc(invoice.ClientName),
			Address: Address{
				Country:        b.company.Country,
				Governate:      nfc(invoice.ClientGovernate),
				RegionCity:     nfc(invoice.ClientCity),
				Street:         nfc(invoice.ClientStreet),
				BuildingNumber: invoice.ClientBuildingNumber,
			},
			Phone: invoice.ClientPhone,
			Email: invoice.ClientEmail,
		},
		DocumentType:             DocumentTypeInvoice,
		DocumentTypeVersion:      DocumentVersion,
		DateTimeIssued:           invoice.IssueDate.UTC().Format(time.RFC3339),
		TaxpayerActivityCode:     b.company.ActivityCode,
		InternalID:               invoice.Number,
		InvoiceLines:             docLines,
		TotalSalesAmount:         amt(totals.TotalSales),
		TotalDiscountAmount:      amt(totals.TotalDiscount),
		NetAmount:                amt(totals.NetAmount),
		TaxTotals:                []TaxTotal{{TaxType: TaxTypeVAT, Amount: amt(totals.TotalTax)}},
		TotalAmount:              amt(totals.TotalAmount),
		ExtraDiscountAmount:      0,
		TotalItemsDiscountAmount: amt(totals.TotalDiscount),
	}

	return doc, nil
}

// amt converts a decimal to the wire representation (5 decimal places).
func amt(d decimal.Decimal) float64 {
	f, _ := d.Round(5).Float64()
	return f
}

// nfc normalizes free-text fields so that the signed bytes are stable across
// sources that encode the same Arabic text with different composition forms.
func nfc(s string) string {
	return norm.NFC.String(s)
}
