package entity

import "time"

// Client is a billing counterparty (the document receiver).
type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	Type      string // "B" business, "P" person
	TaxNumber string // tax registration number; empty for persons

	Governate      string
	City           string
	Street         string
	BuildingNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}
