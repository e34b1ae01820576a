package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax is a configurable tax rate (VAT being the common case).
type Tax struct {
	ID          string
	Name        string
	Rate        decimal.Decimal // percentage
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
