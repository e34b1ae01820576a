package dto

import "github.com/shopspring/decimal"

// CreateClientRequest body for POST /api/clients.
type CreateClientRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	Type           string `json:"type"` // B | P
	TaxNumber      string `json:"tax_number,omitempty"`
	Governate      string `json:"governate,omitempty"`
	City           string `json:"city,omitempty"`
	Street         string `json:"street,omitempty"`
	BuildingNumber string `json:"building_number,omitempty"`
}

// ClientResponse client in responses.
type ClientResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	Type           string `json:"type"`
	TaxNumber      string `json:"tax_number,omitempty"`
	Governate      string `json:"governate,omitempty"`
	City           string `json:"city,omitempty"`
	Street         string `json:"street,omitempty"`
	BuildingNumber string `json:"building_number,omitempty"`
}

// CreateInvoiceRequest body for POST /api/invoices.
// Lines may reference a catalog item by code; description/price/tax default
// from the item when omitted.
type CreateInvoiceRequest struct {
	Number        string               `json:"number"`
	ClientID      string               `json:"client_id"`
	IssueDate     string               `json:"issue_date,omitempty"` // RFC 3339; defaults to now
	DueDate       string               `json:"due_date,omitempty"`
	Currency      string               `json:"currency,omitempty"` // defaults to EGP
	PaymentMethod string               `json:"payment_method,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Lines         []InvoiceLineRequest `json:"lines"`

	// Submit dispatches the invoice to the tax authority right after the
	// transaction commits.
	Submit bool `json:"submit,omitempty"`
}

// InvoiceLineRequest one invoice line.
type InvoiceLineRequest struct {
	ItemCode     string          `json:"item_code,omitempty"`
	Description  string          `json:"description,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	DiscountRate decimal.Decimal `json:"discount_rate,omitempty"`
	TaxRate      decimal.Decimal `json:"tax_rate,omitempty"`
}

// InvoiceResponse invoice with lines for GET /api/invoices/:id.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	ClientID      string                `json:"client_id"`
	ClientName    string                `json:"client_name"`
	IssueDate     string                `json:"issue_date"`
	DueDate       string                `json:"due_date,omitempty"`
	Currency      string                `json:"currency"`
	PaymentMethod string                `json:"payment_method,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	NetTotal      decimal.Decimal       `json:"net_total"`
	TaxTotal      decimal.Decimal       `json:"tax_total"`
	GrandTotal    decimal.Decimal       `json:"grand_total"`
	Status        string                `json:"status"`
	ETA           ETAStatusDTO          `json:"eta"`
	Lines         []InvoiceLineResponse `json:"lines,omitempty"`
}

// InvoiceLineResponse line in the invoice response.
type InvoiceLineResponse struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	ItemCode       string          `json:"item_code,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// ETAStatusDTO light polling body for GET /api/invoices/:id/eta.
// Clients poll this until status is "valid", "rejected" or "error".
type ETAStatusDTO struct {
	SubmissionID       string `json:"submission_id,omitempty"`
	Status             string `json:"status"` // pending|submitted|valid|rejected|cancelled|error
	SubmissionTime     string `json:"submission_time,omitempty"`
	ValidationTime     string `json:"validation_time,omitempty"`
	CancellationTime   string `json:"cancellation_time,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	LastResponse       string `json:"last_response,omitempty"` // raw authority body
}

// CancelInvoiceRequest body for POST /api/invoices/:id/cancel.
type CancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// BulkSubmitRequest body for POST /api/invoices/bulk-submit.
type BulkSubmitRequest struct {
	InvoiceIDs []string `json:"invoice_ids"`
}

// BulkSubmitResponse outcome of one bulk submission.
type BulkSubmitResponse struct {
	SubmissionID string   `json:"submission_id,omitempty"`
	Status       string   `json:"status"`
	InvoiceIDs   []string `json:"invoice_ids"`
}

// CreateItemRequest body for POST /api/items.
type CreateItemRequest struct {
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	UnitType    string          `json:"unit_type,omitempty"` // EA by default
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// ItemResponse catalog item in responses.
type ItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	UnitType    string          `json:"unit_type"`
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateTaxRequest body for POST /api/taxes.
type CreateTaxRequest struct {
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description,omitempty"`
}

// TaxResponse tax rate in responses.
type TaxResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description,omitempty"`
}

// TaxpayerResponse taxpayer lookup for GET /api/eta/taxpayers/:taxId.
type TaxpayerResponse struct {
	TaxNumber string `json:"tax_number"`
	Found     bool   `json:"found"`
	Details   any    `json:"details,omitempty"`
}
