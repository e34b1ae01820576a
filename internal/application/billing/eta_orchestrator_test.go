package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	dometa "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/eta"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeInvoiceRepo struct {
	invoices   map[string]*entity.Invoice
	lines      map[string][]*entity.InvoiceLine
	updateETAs int
	updateErr  error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: map[string]*entity.Invoice{},
		lines:    map[string][]*entity.InvoiceLine{},
	}
}

func (r *fakeInvoiceRepo) Create(inv *entity.Invoice) error { r.invoices[inv.ID] = inv; return nil }
func (r *fakeInvoiceRepo) CreateLine(l *entity.InvoiceLine) error {
	r.lines[l.InvoiceID] = append(r.lines[l.InvoiceID], l)
	return nil
}
func (r *fakeInvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}
func (r *fakeInvoiceRepo) GetByNumber(number string) (*entity.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r *fakeInvoiceRepo) GetLinesByInvoiceID(invoiceID string) ([]*entity.InvoiceLine, error) {
	return r.lines[invoiceID], nil
}
func (r *fakeInvoiceRepo) List(status string, limit, offset int) ([]*entity.Invoice, error) {
	return nil, nil
}
func (r *fakeInvoiceRepo) UpdateETA(inv *entity.Invoice) error {
	r.updateETAs++
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	*stored = *inv
	return nil
}

type fakeGateway struct {
	submitResp *infraeta.SubmissionResponse
	submitErr  error
	submits    int

	bulkResp *infraeta.SubmissionResponse
	bulkErr  error

	statusResp *infraeta.StatusResponse
	statusErr  error
	polls      int

	cancelResp *infraeta.CancelResponse
	cancelErr  error
	cancels    int
}

func (g *fakeGateway) SubmitDocument(ctx context.Context, doc *infraeta.CanonicalDocument) (*infraeta.SubmissionResponse, error) {
	g.submits++
	return g.submitResp, g.submitErr
}
func (g *fakeGateway) SubmitDocuments(ctx context.Context, docs []*infraeta.CanonicalDocument) (*infraeta.SubmissionResponse, error) {
	g.submits++
	return g.bulkResp, g.bulkErr
}
func (g *fakeGateway) GetSubmissionStatus(ctx context.Context, submissionID string) (*infraeta.StatusResponse, error) {
	g.polls++
	return g.statusResp, g.statusErr
}
func (g *fakeGateway) CancelDocument(ctx context.Context, submissionID, reason string) (*infraeta.CancelResponse, error) {
	g.cancels++
	return g.cancelResp, g.cancelErr
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func seedInvoice(repo *fakeInvoiceRepo, id, etaStatus string) *entity.Invoice {
	inv := &entity.Invoice{
		ID:              id,
		Number:          "INV-" + id,
		ClientName:      "Delta Foods",
		ClientType:      "B",
		ClientTaxNumber: "412345678",
		IssueDate:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Currency:        "EGP",
		ETAStatus:       etaStatus,
	}
	repo.invoices[id] = inv
	repo.lines[id] = []*entity.InvoiceLine{{
		InvoiceID:   id,
		Description: "Office chairs",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(14),
	}}
	return inv
}

func newTestOrchestrator(repo *fakeInvoiceRepo, gw *fakeGateway) *ETAOrchestrator {
	o := NewETAOrchestrator(repo,
		infraeta.NewDocumentBuilder(config.CompanyConfig{
			Name:      "Nile Trading Co",
			TaxNumber: "313717919",
			Country:   "EG",
		}),
		gw, zerolog.Nop())
	o.now = func() time.Time { return testNow }
	return o
}

// ── Submit ────────────────────────────────────────────────────────────────────

func TestSubmit_PendingToSubmitted(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	gw := &fakeGateway{submitResp: &infraeta.SubmissionResponse{
		SubmissionID: "sub-1",
		Status:       "submitted",
		Raw:          json.RawMessage(`{"submissionId":"sub-1"}`),
	}}

	o := newTestOrchestrator(repo, gw)
	status, err := o.Submit(context.Background(), "inv-1")
	require.NoError(t, err)

	assert.Equal(t, "sub-1", status.SubmissionID)
	assert.Equal(t, entity.ETAStatusSubmitted, status.Status)
	assert.Equal(t, testNow.Format(time.RFC3339), status.SubmissionTime)

	stored := repo.invoices["inv-1"]
	assert.Equal(t, "sub-1", stored.ETASubmissionID)
	assert.Equal(t, entity.ETAStatusSubmitted, stored.ETAStatus)
	assert.Equal(t, `{"submissionId":"sub-1"}`, stored.ETAResponse)
	require.NotNil(t, stored.ETASubmissionTime)
}

func TestSubmit_AllowedFromErrorState(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusError)
	gw := &fakeGateway{submitResp: &infraeta.SubmissionResponse{SubmissionID: "sub-2"}}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Submit(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ETAStatusSubmitted, repo.invoices["inv-1"].ETAStatus)
}

func TestSubmit_ConflictFromSubmitted(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	gw := &fakeGateway{}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Submit(context.Background(), "inv-1")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, gw.submits)
}

func TestSubmit_ValidationFailureLeavesEnvelopeUntouched(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	repo.lines["inv-1"] = nil // no lines, the builder must refuse
	gw := &fakeGateway{}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Submit(context.Background(), "inv-1")
	require.ErrorIs(t, err, dometa.ErrInvalidInvoice)

	assert.Zero(t, gw.submits)
	assert.Zero(t, repo.updateETAs)
	assert.Equal(t, entity.ETAStatusPending, repo.invoices["inv-1"].ETAStatus)
}

func TestSubmit_GatewayFailureMarksError(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	gw := &fakeGateway{submitErr: &infraeta.APIError{
		Op:         "submit",
		StatusCode: 400,
		Body:       `{"error":{"details":[{"code":"DATATYPE"}]}}`,
	}}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Submit(context.Background(), "inv-1")
	require.Error(t, err)

	stored := repo.invoices["inv-1"]
	assert.Equal(t, entity.ETAStatusError, stored.ETAStatus)
	// The raw authority body is preserved for audit.
	assert.JSONEq(t, `{"error":{"details":[{"code":"DATATYPE"}]}}`, stored.ETAResponse)
	assert.Empty(t, stored.ETASubmissionID)
}

func TestSubmit_TransportFailureStoresErrorText(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	gw := &fakeGateway{submitErr: errors.New("dial tcp: connection refused")}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Submit(context.Background(), "inv-1")
	require.Error(t, err)
	assert.Contains(t, repo.invoices["inv-1"].ETAResponse, "connection refused")
}

// ── Bulk submit ───────────────────────────────────────────────────────────────

func TestSubmitBulk_SharedSubmissionID(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	seedInvoice(repo, "inv-2", entity.ETAStatusError)
	gw := &fakeGateway{bulkResp: &infraeta.SubmissionResponse{
		SubmissionID: "batch-1",
		Raw:          json.RawMessage(`{"submissionId":"batch-1"}`),
	}}

	o := newTestOrchestrator(repo, gw)
	resp, err := o.SubmitBulk(context.Background(), []string{"inv-1", "inv-2"})
	require.NoError(t, err)

	assert.Equal(t, "batch-1", resp.SubmissionID)
	assert.Equal(t, 1, gw.submits)
	for _, id := range []string{"inv-1", "inv-2"} {
		assert.Equal(t, "batch-1", repo.invoices[id].ETASubmissionID)
		assert.Equal(t, entity.ETAStatusSubmitted, repo.invoices[id].ETAStatus)
	}
}

func TestSubmitBulk_RejectsMixedBatch(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	seedInvoice(repo, "inv-2", entity.ETAStatusValid)
	gw := &fakeGateway{}

	o := newTestOrchestrator(repo, gw)
	_, err := o.SubmitBulk(context.Background(), []string{"inv-1", "inv-2"})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, gw.submits)
}

func TestSubmitBulk_FailureMarksAllMembers(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	seedInvoice(repo, "inv-2", entity.ETAStatusPending)
	gw := &fakeGateway{bulkErr: &infraeta.APIError{Op: "bulk_submit", StatusCode: 500, Body: "overloaded"}}

	o := newTestOrchestrator(repo, gw)
	_, err := o.SubmitBulk(context.Background(), []string{"inv-1", "inv-2"})
	require.Error(t, err)
	assert.Equal(t, entity.ETAStatusError, repo.invoices["inv-1"].ETAStatus)
	assert.Equal(t, entity.ETAStatusError, repo.invoices["inv-2"].ETAStatus)
}

func TestSubmitBulk_EmptyBatch(t *testing.T) {
	o := newTestOrchestrator(newFakeInvoiceRepo(), &fakeGateway{})
	_, err := o.SubmitBulk(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Status polling ────────────────────────────────────────────────────────────

func TestPollStatus_ValidSetsValidationTime(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{statusResp: &infraeta.StatusResponse{
		Status:         "Valid",
		ValidationDate: "2026-03-16T08:00:00Z",
		Raw:            json.RawMessage(`{"status":"Valid"}`),
	}}

	o := newTestOrchestrator(repo, gw)
	status, err := o.PollStatus(context.Background(), "inv-1")
	require.NoError(t, err)

	assert.Equal(t, entity.ETAStatusValid, status.Status)
	assert.Equal(t, "2026-03-16T08:00:00Z", status.ValidationTime)
	require.NotNil(t, repo.invoices["inv-1"].ETAValidationTime)
}

func TestPollStatus_RejectedIsRecorded(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{statusResp: &infraeta.StatusResponse{
		Status: "Invalid",
		Raw:    json.RawMessage(`{"status":"Invalid","errors":["bad receiver id"]}`),
	}}

	o := newTestOrchestrator(repo, gw)
	status, err := o.PollStatus(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ETAStatusRejected, status.Status)
	assert.Contains(t, repo.invoices["inv-1"].ETAResponse, "bad receiver id")
}

func TestPollStatus_InProgressStaysSubmitted(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{statusResp: &infraeta.StatusResponse{Status: "In Progress"}}

	o := newTestOrchestrator(repo, gw)
	status, err := o.PollStatus(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ETAStatusSubmitted, status.Status)
}

func TestPollStatus_TerminalStatesSkipNetwork(t *testing.T) {
	for _, terminal := range []string{entity.ETAStatusValid, entity.ETAStatusRejected, entity.ETAStatusCancelled} {
		t.Run(terminal, func(t *testing.T) {
			repo := newFakeInvoiceRepo()
			inv := seedInvoice(repo, "inv-1", terminal)
			inv.ETASubmissionID = "sub-1"
			gw := &fakeGateway{}

			o := newTestOrchestrator(repo, gw)
			status, err := o.PollStatus(context.Background(), "inv-1")
			require.NoError(t, err)
			assert.Equal(t, terminal, status.Status)
			assert.Zero(t, gw.polls)
		})
	}
}

func TestPollStatus_NeverSubmitted(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)

	o := newTestOrchestrator(repo, &fakeGateway{})
	_, err := o.PollStatus(context.Background(), "inv-1")
	require.ErrorIs(t, err, domain.ErrNotSubmitted)
}

func TestPollStatus_GatewayFailureMarksError(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{statusErr: errors.New("gateway timeout")}

	o := newTestOrchestrator(repo, gw)
	_, err := o.PollStatus(context.Background(), "inv-1")
	require.Error(t, err)
	assert.Equal(t, entity.ETAStatusError, repo.invoices["inv-1"].ETAStatus)
}

// ── Cancellation ──────────────────────────────────────────────────────────────

func TestCancel_FromSubmitted(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{cancelResp: &infraeta.CancelResponse{
		Status: "cancelled",
		Raw:    json.RawMessage(`{"status":"cancelled"}`),
	}}

	o := newTestOrchestrator(repo, gw)
	status, err := o.Cancel(context.Background(), "inv-1", "issued in error")
	require.NoError(t, err)

	assert.Equal(t, entity.ETAStatusCancelled, status.Status)
	assert.Equal(t, "issued in error", status.CancellationReason)
	assert.Equal(t, testNow.Format(time.RFC3339), status.CancellationTime)
	assert.Equal(t, entity.ETAStatusCancelled, repo.invoices["inv-1"].ETAStatus)
}

func TestCancel_RequiresReason(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusSubmitted)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Cancel(context.Background(), "inv-1", "  ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, gw.cancels)
}

func TestCancel_NeverSubmittedMakesNoNetworkCall(t *testing.T) {
	repo := newFakeInvoiceRepo()
	seedInvoice(repo, "inv-1", entity.ETAStatusPending)
	gw := &fakeGateway{}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Cancel(context.Background(), "inv-1", "mistake")
	require.ErrorIs(t, err, domain.ErrNotSubmitted)
	assert.Zero(t, gw.cancels)
}

func TestCancel_ConflictOutsideCancellableStates(t *testing.T) {
	for _, state := range []string{entity.ETAStatusRejected, entity.ETAStatusCancelled, entity.ETAStatusError} {
		t.Run(state, func(t *testing.T) {
			repo := newFakeInvoiceRepo()
			inv := seedInvoice(repo, "inv-1", state)
			inv.ETASubmissionID = "sub-1"
			gw := &fakeGateway{}

			o := newTestOrchestrator(repo, gw)
			_, err := o.Cancel(context.Background(), "inv-1", "mistake")
			require.ErrorIs(t, err, domain.ErrConflict)
			assert.Zero(t, gw.cancels)
		})
	}
}

func TestCancel_FailureLeavesEnvelopeUntouched(t *testing.T) {
	repo := newFakeInvoiceRepo()
	inv := seedInvoice(repo, "inv-1", entity.ETAStatusValid)
	inv.ETASubmissionID = "sub-1"
	gw := &fakeGateway{cancelErr: &infraeta.APIError{Op: "cancel", StatusCode: 409, Body: "too late"}}

	o := newTestOrchestrator(repo, gw)
	_, err := o.Cancel(context.Background(), "inv-1", "mistake")
	require.Error(t, err)

	// The document is still live remotely; local state must not lie about it.
	assert.Equal(t, entity.ETAStatusValid, repo.invoices["inv-1"].ETAStatus)
	assert.Zero(t, repo.updateETAs)
}

// ── Status normalization ──────────────────────────────────────────────────────

func TestNormalizeRemoteStatus(t *testing.T) {
	cases := map[string]string{
		"Valid":       entity.ETAStatusValid,
		"validated":   entity.ETAStatusValid,
		"ACCEPTED":    entity.ETAStatusValid,
		"Invalid":     entity.ETAStatusRejected,
		"rejected":    entity.ETAStatusRejected,
		"Cancelled":   entity.ETAStatusCancelled,
		"canceled":    entity.ETAStatusCancelled,
		"In Progress": entity.ETAStatusSubmitted,
		"":            entity.ETAStatusSubmitted,
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeRemoteStatus(in), "input %q", in)
	}
}
