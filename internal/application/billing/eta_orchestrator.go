package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
)

// asyncBudget bounds one background submission, including retries.
const asyncBudget = 5 * time.Minute

// ETAOrchestrator drives the full submission cycle against the tax authority:
//
//	fetch invoice → build canonical document → sign+submit → update envelope
//
// Every terminal outcome is persisted on the invoice's ETA envelope, success
// and failure alike, so the local row always reflects the last known remote
// state. Business fields of the invoice are never touched here.
type ETAOrchestrator struct {
	invoiceRepo repository.InvoiceRepository
	builder     *infraeta.DocumentBuilder
	gateway     infraeta.Gateway
	log         zerolog.Logger
	now         func() time.Time
}

// NewETAOrchestrator builds the orchestrator with all its dependencies.
func NewETAOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	builder *infraeta.DocumentBuilder,
	gateway infraeta.Gateway,
	log zerolog.Logger,
) *ETAOrchestrator {
	return &ETAOrchestrator{
		invoiceRepo: invoiceRepo,
		builder:     builder,
		gateway:     gateway,
		log:         log.With().Str("component", "eta_orchestrator").Logger(),
		now:         time.Now,
	}
}

// SubmitAsync dispatches the submission in an independent goroutine with its
// own context, decoupled from the HTTP request cycle.
func (o *ETAOrchestrator) SubmitAsync(invoiceID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncBudget)
		defer cancel()
		if _, err := o.Submit(ctx, invoiceID); err != nil {
			o.log.Error().Str("invoice_id", invoiceID).Err(err).Msg("background submission failed")
		}
	}()
}

// Submit sends one invoice to the authority. Allowed from "pending" and from
// "error" (resubmission); any other state is a conflict. Validation failures
// are returned to the caller without touching the envelope: the invoice never
// left the building, there is no remote state to record.
func (o *ETAOrchestrator) Submit(ctx context.Context, invoiceID string) (*dto.ETAStatusDTO, error) {
	inv, err := o.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.ETAStatus != entity.ETAStatusPending && inv.ETAStatus != entity.ETAStatusError {
		return nil, fmt.Errorf("invoice %s already in state %q: %w", invoiceID, inv.ETAStatus, domain.ErrConflict)
	}

	lines, err := o.invoiceRepo.GetLinesByInvoiceID(invoiceID)
	if err != nil {
		return nil, err
	}
	doc, err := o.builder.Build(inv, lines)
	if err != nil {
		return nil, err
	}

	resp, err := o.gateway.SubmitDocument(ctx, doc)
	if err != nil {
		o.markError(inv, "submit", err)
		return nil, err
	}

	now := o.now()
	inv.ETASubmissionID = resp.SubmissionID
	inv.ETAStatus = entity.ETAStatusSubmitted
	inv.ETAResponse = string(resp.Raw)
	inv.ETASubmissionTime = &now
	inv.UpdatedAt = now
	if err := o.invoiceRepo.UpdateETA(inv); err != nil {
		return nil, err
	}
	o.log.Info().Str("invoice_id", invoiceID).Str("submission_id", resp.SubmissionID).Msg("invoice submitted")
	return toETAStatusDTO(inv), nil
}

// SubmitBulk sends several invoices in one signed batch. All invoices must be
// submittable; the batch shares one submission id on success and every member
// is marked "error" on failure.
func (o *ETAOrchestrator) SubmitBulk(ctx context.Context, invoiceIDs []string) (*dto.BulkSubmitResponse, error) {
	if len(invoiceIDs) == 0 {
		return nil, fmt.Errorf("empty batch: %w", domain.ErrInvalidInput)
	}

	invoices := make([]*entity.Invoice, 0, len(invoiceIDs))
	docs := make([]*infraeta.CanonicalDocument, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		inv, err := o.invoiceRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if inv.ETAStatus != entity.ETAStatusPending && inv.ETAStatus != entity.ETAStatusError {
			return nil, fmt.Errorf("invoice %s already in state %q: %w", id, inv.ETAStatus, domain.ErrConflict)
		}
		lines, err := o.invoiceRepo.GetLinesByInvoiceID(id)
		if err != nil {
			return nil, err
		}
		doc, err := o.builder.Build(inv, lines)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", id, err)
		}
		invoices = append(invoices, inv)
		docs = append(docs, doc)
	}

	resp, err := o.gateway.SubmitDocuments(ctx, docs)
	if err != nil {
		for _, inv := range invoices {
			o.markError(inv, "bulk_submit", err)
		}
		return nil, err
	}

	now := o.now()
	for _, inv := range invoices {
		inv.ETASubmissionID = resp.SubmissionID
		inv.ETAStatus = entity.ETAStatusSubmitted
		inv.ETAResponse = string(resp.Raw)
		inv.ETASubmissionTime = &now
		inv.UpdatedAt = now
		if err := o.invoiceRepo.UpdateETA(inv); err != nil {
			o.log.Error().Str("invoice_id", inv.ID).Err(err).Msg("could not persist bulk submission envelope")
		}
	}
	o.log.Info().Int("count", len(invoices)).Str("submission_id", resp.SubmissionID).Msg("bulk batch submitted")
	return &dto.BulkSubmitResponse{
		SubmissionID: resp.SubmissionID,
		Status:       entity.ETAStatusSubmitted,
		InvoiceIDs:   invoiceIDs,
	}, nil
}

// PollStatus refreshes the remote lifecycle state of one submitted invoice.
// Terminal states (valid, rejected, cancelled) are sticky: once reached, no
// further polling happens.
func (o *ETAOrchestrator) PollStatus(ctx context.Context, invoiceID string) (*dto.ETAStatusDTO, error) {
	inv, err := o.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	switch inv.ETAStatus {
	case entity.ETAStatusValid, entity.ETAStatusRejected, entity.ETAStatusCancelled:
		return toETAStatusDTO(inv), nil
	}
	if inv.ETASubmissionID == "" {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, domain.ErrNotSubmitted)
	}

	resp, err := o.gateway.GetSubmissionStatus(ctx, inv.ETASubmissionID)
	if err != nil {
		o.markError(inv, "status_poll", err)
		return nil, err
	}

	now := o.now()
	inv.ETAResponse = string(resp.Raw)
	inv.UpdatedAt = now
	switch normalizeRemoteStatus(resp.Status) {
	case entity.ETAStatusValid:
		inv.ETAStatus = entity.ETAStatusValid
		validated := now
		if t, err := time.Parse(time.RFC3339, resp.ValidationDate); err == nil {
			validated = t
		}
		inv.ETAValidationTime = &validated
	case entity.ETAStatusRejected:
		inv.ETAStatus = entity.ETAStatusRejected
	case entity.ETAStatusCancelled:
		inv.ETAStatus = entity.ETAStatusCancelled
		cancelled := now
		inv.ETACancellationTime = &cancelled
	default:
		// Still in progress at the authority, keep "submitted".
	}
	if err := o.invoiceRepo.UpdateETA(inv); err != nil {
		return nil, err
	}
	return toETAStatusDTO(inv), nil
}

// Cancel asks the authority to cancel a document. Only allowed from
// "submitted" or "valid"; an invoice that never reached the authority has
// nothing to cancel and no network call is made. A failed cancellation leaves
// the envelope untouched: the document is still live remotely.
func (o *ETAOrchestrator) Cancel(ctx context.Context, invoiceID, reason string) (*dto.ETAStatusDTO, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("cancellation reason required: %w", domain.ErrInvalidInput)
	}
	inv, err := o.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.ETASubmissionID == "" {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, domain.ErrNotSubmitted)
	}
	if inv.ETAStatus != entity.ETAStatusSubmitted && inv.ETAStatus != entity.ETAStatusValid {
		return nil, fmt.Errorf("invoice %s in state %q cannot be cancelled: %w", invoiceID, inv.ETAStatus, domain.ErrConflict)
	}

	resp, err := o.gateway.CancelDocument(ctx, inv.ETASubmissionID, reason)
	if err != nil {
		return nil, err
	}

	now := o.now()
	inv.ETAStatus = entity.ETAStatusCancelled
	inv.ETAResponse = string(resp.Raw)
	inv.ETACancellationTime = &now
	inv.ETACancellationReason = reason
	inv.UpdatedAt = now
	if err := o.invoiceRepo.UpdateETA(inv); err != nil {
		return nil, err
	}
	o.log.Info().Str("invoice_id", invoiceID).Str("reason", reason).Msg("invoice cancelled")
	return toETAStatusDTO(inv), nil
}

// markError persists the "error" envelope with the failure payload. For
// authority rejections the raw body is kept so operators can read the
// structured error list.
func (o *ETAOrchestrator) markError(inv *entity.Invoice, step string, cause error) {
	now := o.now()
	inv.ETAStatus = entity.ETAStatusError
	inv.ETAResponse = errorPayload(cause)
	inv.UpdatedAt = now
	if err := o.invoiceRepo.UpdateETA(inv); err != nil {
		o.log.Error().Str("invoice_id", inv.ID).Err(err).Msg("could not persist error envelope")
	}
	o.log.Warn().Str("invoice_id", inv.ID).Str("step", step).Err(cause).Msg("submission step failed")
}

// errorPayload extracts the most useful representation of a failure: the raw
// authority body when there is one, the error text otherwise.
func errorPayload(err error) string {
	var apiErr *infraeta.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return err.Error()
}

// normalizeRemoteStatus maps the authority's status vocabulary onto the local
// envelope statuses. Unknown values stay in flight.
func normalizeRemoteStatus(s string) string {
	switch strings.ToLower(s) {
	case "valid", "validated", "accepted":
		return entity.ETAStatusValid
	case "invalid", "rejected":
		return entity.ETAStatusRejected
	case "cancelled", "canceled":
		return entity.ETAStatusCancelled
	default:
		return entity.ETAStatusSubmitted
	}
}

func toETAStatusDTO(inv *entity.Invoice) *dto.ETAStatusDTO {
	out := &dto.ETAStatusDTO{
		SubmissionID:       inv.ETASubmissionID,
		Status:             inv.ETAStatus,
		CancellationReason: inv.ETACancellationReason,
		LastResponse:       inv.ETAResponse,
	}
	if inv.ETASubmissionTime != nil {
		out.SubmissionTime = inv.ETASubmissionTime.UTC().Format(time.RFC3339)
	}
	if inv.ETAValidationTime != nil {
		out.ValidationTime = inv.ETAValidationTime.UTC().Format(time.RFC3339)
	}
	if inv.ETACancellationTime != nil {
		out.CancellationTime = inv.ETACancellationTime.UTC().Format(time.RFC3339)
	}
	return out
}
