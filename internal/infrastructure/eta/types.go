package eta

import (
	"context"
	"encoding/json"
)

// Document constants required by the authority.
const (
	DocumentTypeInvoice = "I"
	DocumentVersion     = "1.0"

	TaxTypeVAT        = "T1"
	TaxSubTypeVAT     = "V001"
	PartyTypeBusiness = "B"
	PartyTypePerson   = "P"
	CurrencyEGP       = "EGP"
)

// CanonicalDocument is the authority-specified JSON shape of one e-invoice.
// It is derived fresh for every submission and never persisted on its own;
// on success the authority echoes it back inside the stored response.
//
// Field order in these structs is the serialization order, and the serialized
// bytes are signed; do not reorder fields without revisiting the signature.
type CanonicalDocument struct {
	Issuer                   Party          `json:"issuer"`
	Receiver                 Party          `json:"receiver"`
	DocumentType             string         `json:"documentType"`
	DocumentTypeVersion      string         `json:"documentTypeVersion"`
	DateTimeIssued           string         `json:"dateTimeIssued"` // ISO-8601 UTC
	TaxpayerActivityCode     string         `json:"taxpayerActivityCode"`
	InternalID               string         `json:"internalID"` // = invoice number
	InvoiceLines             []DocumentLine `json:"invoiceLines"`
	TotalSalesAmount         float64        `json:"totalSalesAmount"`
	TotalDiscountAmount      float64        `json:"totalDiscountAmount"`
	NetAmount                float64        `json:"netAmount"`
	TaxTotals                []TaxTotal     `json:"taxTotals"`
	TotalAmount              float64        `json:"totalAmount"`
	ExtraDiscountAmount      float64        `json:"extraDiscountAmount"`
	TotalItemsDiscountAmount float64        `json:"totalItemsDiscountAmount"`
}

// Party is the issuer or receiver block.
type Party struct {
	Type    string  `json:"type"` // B | P
	ID      string  `json:"id"`   // tax registration number; may be empty for persons
	Name    string  `json:"name"`
	Address Address `json:"address"`
	Phone   string  `json:"phone,omitempty"`
	Email   string  `json:"email,omitempty"`
}

// Address components; optional parts fall back to empty strings, never omitted
// on the receiver side.
type Address struct {
	BranchID       string `json:"branchID,omitempty"`
	Country        string `json:"country"`
	Governate      string `json:"governate"`
	RegionCity     string `json:"regionCity"`
	Street         string `json:"street"`
	BuildingNumber string `json:"buildingNumber"`
}

// DocumentLine is one invoice line in authority shape.
type DocumentLine struct {
	Description      string        `json:"description"`
	ItemType         string        `json:"itemType"`
	ItemCode         string        `json:"itemCode"`
	UnitType         string        `json:"unitType"`
	Quantity         float64       `json:"quantity"`
	UnitValue        UnitValue     `json:"unitValue"`
	SalesTotal       float64       `json:"salesTotal"`
	Total            float64       `json:"total"`
	ValueDifference  float64       `json:"valueDifference"`
	TotalTaxableFees float64       `json:"totalTaxableFees"`
	NetTotal         float64       `json:"netTotal"`
	Discount         Discount      `json:"discount"`
	TaxableItems     []TaxableItem `json:"taxableItems"`
}

// UnitValue carries the sold currency and the unit price in EGP.
type UnitValue struct {
	CurrencySold string  `json:"currencySold"`
	AmountEGP    float64 `json:"amountEGP"`
}

// Discount rate (percentage) and the resulting amount for one line.
type Discount struct {
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// TaxableItem is one tax applied to a line.
type TaxableItem struct {
	TaxType string  `json:"taxType"`
	Amount  float64 `json:"amount"`
	SubType string  `json:"subType"`
	Rate    float64 `json:"rate"`
}

// TaxTotal is one document-level tax group.
type TaxTotal struct {
	TaxType string  `json:"taxType"`
	Amount  float64 `json:"amount"`
}

// bulkEnvelope wraps several documents for the bulk endpoint; signed as one unit.
type bulkEnvelope struct {
	Documents []*CanonicalDocument `json:"documents"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// SubmissionResponse is the authority's answer to a document submission.
// Raw preserves the body verbatim for the invoice envelope.
type SubmissionResponse struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`

	Raw json.RawMessage `json:"-"`
}

// StatusResponse is the authority's answer to a submission status poll.
type StatusResponse struct {
	SubmissionID   string `json:"submissionId"`
	Status         string `json:"status"`
	ValidationDate string `json:"validationDate"` // ISO-8601, empty until validated

	Raw json.RawMessage `json:"-"`
}

// CancelResponse is the authority's answer to a cancellation request.
type CancelResponse struct {
	Status string `json:"status"`

	Raw json.RawMessage `json:"-"`
}

// TaxpayerInfo is the taxpayer lookup result. A 404 from the authority is a
// legitimate "not registered" outcome, reported with Found=false, not an error.
type TaxpayerInfo struct {
	Found bool            `json:"found"`
	Raw   json.RawMessage `json:"details,omitempty"`
}

// Gateway is the outbound port the submission orchestrator depends on. The
// concrete implementation is *Client; tests inject a double.
type Gateway interface {
	SubmitDocument(ctx context.Context, doc *CanonicalDocument) (*SubmissionResponse, error)
	SubmitDocuments(ctx context.Context, docs []*CanonicalDocument) (*SubmissionResponse, error)
	GetSubmissionStatus(ctx context.Context, submissionID string) (*StatusResponse, error)
	CancelDocument(ctx context.Context, submissionID, reason string) (*CancelResponse, error)
}
