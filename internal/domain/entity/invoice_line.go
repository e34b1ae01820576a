package entity

import "github.com/shopspring/decimal"

// Defaults used when a line does not carry explicit codes.
const (
	ItemTypeGoodsServices = "EGS" // GS1/EGS coding scheme
	UnitTypeEach          = "EA"
)

// InvoiceLine is one detail line of an invoice. Lines are owned by their
// invoice and cascade-deleted with it; never shared.
//
// Stored amounts satisfy:
//
//	DiscountAmount = Quantity * UnitPrice * DiscountRate/100
//	Total          = (Quantity*UnitPrice - DiscountAmount) + TaxAmount
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Description string
	ItemCode    string
	ItemType    string // EGS
	UnitType    string // EA

	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountRate   decimal.Decimal // percentage, 0-100
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal // percentage, e.g. 14 for VAT
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}
