package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/usecase"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
)

// ETAHandler exposes the authority's read surface (protected).
type ETAHandler struct {
	uc *usecase.ETAUseCase
}

// NewETAHandler builds the handler.
func NewETAHandler(uc *usecase.ETAUseCase) *ETAHandler {
	return &ETAHandler{uc: uc}
}

// VerifyTaxpayer looks up a tax registration number.
// GET /api/eta/taxpayers/:taxId
func (h *ETAHandler) VerifyTaxpayer(c *fiber.Ctx) error {
	out, err := h.uc.VerifyTaxpayer(c.Context(), c.Params("taxId"))
	if err != nil {
		return etaError(c, err)
	}
	return c.JSON(out)
}

// GetDocument fetches a document from the authority registry.
// GET /api/eta/documents/:uuid
func (h *ETAHandler) GetDocument(c *fiber.Ctx) error {
	raw, err := h.uc.GetDocument(c.Context(), c.Params("uuid"))
	if err != nil {
		return etaError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// Printout downloads the authority-rendered document.
// GET /api/eta/documents/:uuid/printout?format=pdf|html
func (h *ETAHandler) Printout(c *fiber.Ctx) error {
	format := c.Query("format", "pdf")
	body, err := h.uc.GetDocumentPrintout(c.Context(), c.Params("uuid"), format)
	if err != nil {
		return etaError(c, err)
	}
	contentType := "application/pdf"
	if format == "html" {
		contentType = fiber.MIMETextHTML
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

// Recent lists the latest documents in the registry.
// GET /api/eta/documents/recent
func (h *ETAHandler) Recent(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	raw, err := h.uc.RecentDocuments(c.Context(), page)
	if err != nil {
		return etaError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// Search queries the registry with arbitrary criteria.
// POST /api/eta/documents/search?limit=&offset=
func (h *ETAHandler) Search(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	criteria := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&criteria); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
		}
	}
	raw, err := h.uc.SearchDocuments(c.Context(), criteria, page)
	if err != nil {
		return etaError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// etaError maps upstream failures to HTTP statuses.
func etaError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, infraeta.ErrAuthenticationFailed):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ETA_AUTH", Message: err.Error()})
	default:
		var apiErr *infraeta.APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == fiber.StatusNotFound {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
			}
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ETA_UPSTREAM", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
