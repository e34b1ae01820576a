package eta

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	dometa "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/eta"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

func testCompany() config.CompanyConfig {
	return config.CompanyConfig{
		Name:           "Nile Trading Co",
		TaxNumber:      "313717919",
		ActivityCode:   "4620",
		BranchID:       "0",
		Country:        "EG",
		Governate:      "Cairo",
		City:           "Nasr City",
		Street:         "Abbas El Akkad",
		BuildingNumber: "12",
		Phone:          "+20212345678",
		Email:          "billing@niletrading.example",
	}
}

func testInvoice() (*entity.Invoice, []*entity.InvoiceLine) {
	inv := &entity.Invoice{
		ID:              "inv-1",
		Number:          "INV-2026-001",
		ClientName:      "Delta Foods",
		ClientType:      "B",
		ClientTaxNumber: "412345678",
		ClientGovernate: "Giza",
		ClientCity:      "Dokki",
		ClientStreet:    "Tahrir St",
		IssueDate:       time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Currency:        "EGP",
	}
	lines := []*entity.InvoiceLine{{
		InvoiceID:   "inv-1",
		ItemCode:    "EG-1001",
		Description: "Office chairs",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(14),
	}}
	return inv, lines
}

func TestDocumentBuilder_Build(t *testing.T) {
	b := NewDocumentBuilder(testCompany())
	inv, lines := testInvoice()

	doc, err := b.Build(inv, lines)
	require.NoError(t, err)

	assert.Equal(t, DocumentTypeInvoice, doc.DocumentType)
	assert.Equal(t, DocumentVersion, doc.DocumentTypeVersion)
	assert.Equal(t, "INV-2026-001", doc.InternalID)
	assert.Equal(t, "2026-03-15T09:30:00Z", doc.DateTimeIssued)

	// Issuer always comes from the company profile.
	assert.Equal(t, "313717919", doc.Issuer.ID)
	assert.Equal(t, PartyTypeBusiness, doc.Issuer.Type)
	assert.Equal(t, "0", doc.Issuer.Address.BranchID)

	assert.Equal(t, "412345678", doc.Receiver.ID)
	assert.Equal(t, "Giza", doc.Receiver.Address.Governate)

	require.Len(t, doc.InvoiceLines, 1)
	line := doc.InvoiceLines[0]
	assert.Equal(t, entity.ItemTypeGoodsServices, line.ItemType)
	assert.Equal(t, entity.UnitTypeEach, line.UnitType)
	assert.Equal(t, CurrencyEGP, line.UnitValue.CurrencySold)
	assert.InDelta(t, 200.0, line.SalesTotal, 1e-9)
	assert.InDelta(t, 228.0, line.Total, 1e-9)

	require.Len(t, line.TaxableItems, 1)
	assert.Equal(t, TaxTypeVAT, line.TaxableItems[0].TaxType)
	assert.Equal(t, TaxSubTypeVAT, line.TaxableItems[0].SubType)
	assert.InDelta(t, 28.0, line.TaxableItems[0].Amount, 1e-9)

	require.Len(t, doc.TaxTotals, 1)
	assert.InDelta(t, 28.0, doc.TaxTotals[0].Amount, 1e-9)
	assert.InDelta(t, 228.0, doc.TotalAmount, 1e-9)
}

func TestDocumentBuilder_Build_Defaults(t *testing.T) {
	b := NewDocumentBuilder(testCompany())
	inv, lines := testInvoice()
	inv.Currency = ""
	inv.ClientType = ""
	lines[0].ItemType = ""
	lines[0].UnitType = ""

	doc, err := b.Build(inv, lines)
	require.NoError(t, err)

	assert.Equal(t, PartyTypeBusiness, doc.Receiver.Type)
	assert.Equal(t, CurrencyEGP, doc.InvoiceLines[0].UnitValue.CurrencySold)
	assert.Equal(t, entity.ItemTypeGoodsServices, doc.InvoiceLines[0].ItemType)
	assert.Equal(t, entity.UnitTypeEach, doc.InvoiceLines[0].UnitType)
}

func TestDocumentBuilder_Build_NormalizesText(t *testing.T) {
	b := NewDocumentBuilder(testCompany())
	inv, lines := testInvoice()

	// Decomposed "é" must be composed before signing.
	decomposed := "café tables"
	lines[0].Description = decomposed

	doc, err := b.Build(inv, lines)
	require.NoError(t, err)

	assert.Equal(t, norm.NFC.String(decomposed), doc.InvoiceLines[0].Description)
	assert.NotEqual(t, decomposed, doc.InvoiceLines[0].Description)
}

func TestDocumentBuilder_Build_Rejects(t *testing.T) {
	b := NewDocumentBuilder(testCompany())

	t.Run("nil invoice", func(t *testing.T) {
		_, err := b.Build(nil, nil)
		require.ErrorIs(t, err, dometa.ErrInvalidInvoice)
	})

	t.Run("no lines", func(t *testing.T) {
		inv, _ := testInvoice()
		_, err := b.Build(inv, nil)
		require.ErrorIs(t, err, dometa.ErrInvalidInvoice)
	})

	t.Run("divergent stored totals", func(t *testing.T) {
		inv, lines := testInvoice()
		inv.GrandTotal = decimal.NewFromInt(999)
		_, err := b.Build(inv, lines)
		require.ErrorIs(t, err, dometa.ErrInvalidInvoice)
		assert.Contains(t, err.Error(), "diverges")
	})
}
