package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remote lifecycle statuses reported for a document submitted to the
// Egyptian Tax Authority (ETA). Distinct from the local workflow status.
const (
	ETAStatusPending   = "pending"   // never submitted, or authority still processing
	ETAStatusSubmitted = "submitted" // accepted by the authority, submission id recorded
	ETAStatusValid     = "valid"     // validated by the authority
	ETAStatusRejected  = "rejected"  // rejected with a structured error body
	ETAStatusCancelled = "cancelled" // cancelled after submission
	ETAStatusError     = "error"     // submission or polling failed after retries; resubmittable
)

// Invoice is the aggregate root for billing. Business fields are written at
// creation; the ETA envelope fields (ETA*) are written exclusively by the
// submission orchestrator afterwards.
type Invoice struct {
	ID     string
	Number string // unique; local dedup key for submissions
	UserID string

	ClientID             string
	ClientName           string
	ClientEmail          string
	ClientPhone          string
	ClientAddress        string
	ClientType           string // "B" business, "P" person
	ClientTaxNumber      string
	ClientGovernate      string
	ClientCity           string
	ClientStreet         string
	ClientBuildingNumber string

	IssueDate     time.Time
	DueDate       *time.Time
	Currency      string
	PaymentMethod string
	Notes         string

	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal

	Status string // local workflow status (pending, paid, void)

	// ETA integration envelope.
	ETASubmissionID       string // unique once set
	ETAStatus             string
	ETAResponse           string // last raw authority response (JSON), or error payload
	ETASubmissionTime     *time.Time
	ETAValidationTime     *time.Time
	ETACancellationTime   *time.Time
	ETACancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}
