package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/usecase"
)

// TaxHandler handles tax rate requests (protected, admin-managed).
type TaxHandler struct {
	uc *usecase.TaxUseCase
}

// NewTaxHandler builds the handler.
func NewTaxHandler(uc *usecase.TaxUseCase) *TaxHandler {
	return &TaxHandler{uc: uc}
}

// Create creates a tax rate.
// POST /api/taxes
func (h *TaxHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTaxRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	tax, err := h.uc.CreateTax(in)
	if err != nil {
		return crudError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tax)
}

// GetByID fetches one tax rate.
// GET /api/taxes/:id
func (h *TaxHandler) GetByID(c *fiber.Ctx) error {
	tax, err := h.uc.GetTax(c.Params("id"))
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(tax)
}

// Update rewrites a tax rate.
// PUT /api/taxes/:id
func (h *TaxHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateTaxRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	tax, err := h.uc.UpdateTax(c.Params("id"), in)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(tax)
}

// List returns tax rates paginated.
// GET /api/taxes
func (h *TaxHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	taxes, err := h.uc.ListTaxes(page)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(taxes)
}

// Delete removes a tax rate.
// DELETE /api/taxes/:id
func (h *TaxHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteTax(c.Params("id")); err != nil {
		return crudError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
