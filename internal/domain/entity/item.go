package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry (good or service) used to prefill invoice lines.
type Item struct {
	ID          string
	Name        string
	Code        string // unique item code (EGS/GS1)
	Description string
	UnitType    string // EA by default
	Price       decimal.Decimal
	TaxRate     decimal.Decimal // percentage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
