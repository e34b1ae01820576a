package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/billing"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	dometa "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/eta"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
)

// InvoiceHandler handles invoicing requests (protected).
type InvoiceHandler struct {
	uc           *billing.CreateInvoiceUseCase
	orchestrator *billing.ETAOrchestrator
	pdfUC        *billing.PDFUseCase
}

// NewInvoiceHandler builds the handler.
func NewInvoiceHandler(uc *billing.CreateInvoiceUseCase, orchestrator *billing.ETAOrchestrator, pdfUC *billing.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, orchestrator: orchestrator, pdfUC: pdfUC}
}

// Create creates an invoice with its lines.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	invoice, err := h.uc.CreateInvoice(c.Context(), userID, in)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID returns the full invoice with lines.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id required"})
	}
	invoice, err := h.uc.GetInvoice(c.Context(), id)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(invoice)
}

// List returns invoices, optionally filtered by ETA status.
// GET /api/invoices?status=&limit=&offset=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	invoices, err := h.uc.ListInvoices(c.Context(), c.Query("status"), page)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(invoices)
}

// Submit dispatches one invoice to the tax authority synchronously.
// POST /api/invoices/:id/submit
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	id := c.Params("id")
	status, err := h.orchestrator.Submit(c.Context(), id)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(status)
}

// ETAStatus polls the authority for the current submission state.
// GET /api/invoices/:id/eta
func (h *InvoiceHandler) ETAStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status, err := h.orchestrator.PollStatus(c.Context(), id)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(status)
}

// Cancel cancels a submitted document at the authority.
// POST /api/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.CancelInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	status, err := h.orchestrator.Cancel(c.Context(), id, in.Reason)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(status)
}

// BulkSubmit sends several invoices in one signed batch.
// POST /api/invoices/bulk-submit
func (h *InvoiceHandler) BulkSubmit(c *fiber.Ctx) error {
	var in dto.BulkSubmitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	out, err := h.orchestrator.SubmitBulk(c.Context(), in.InvoiceIDs)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// PDF downloads the printable representation of an invoice.
// GET /api/invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	id := c.Params("id")
	pdfBytes, filename, err := h.pdfUC.DownloadInvoicePDF(c.Context(), id)
	if err != nil {
		return invoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// invoiceError maps domain errors to HTTP statuses.
func invoiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, dometa.ErrInvalidInvoice):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrNotSubmitted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_SUBMITTED", Message: err.Error()})
	case errors.Is(err, infraeta.ErrAuthenticationFailed):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ETA_AUTH", Message: err.Error()})
	default:
		var apiErr *infraeta.APIError
		if errors.As(err, &apiErr) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ETA_UPSTREAM", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
