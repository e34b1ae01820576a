package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/usecase"
)

// ItemHandler handles catalog item requests (protected).
type ItemHandler struct {
	uc *usecase.ItemUseCase
}

// NewItemHandler builds the handler.
func NewItemHandler(uc *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

// Create creates a catalog item.
// POST /api/items
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	item, err := h.uc.CreateItem(in)
	if err != nil {
		return crudError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetByID fetches one item.
// GET /api/items/:id
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.uc.GetItem(c.Params("id"))
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(item)
}

// Update rewrites an item.
// PUT /api/items/:id
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	item, err := h.uc.UpdateItem(c.Params("id"), in)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(item)
}

// List returns items paginated.
// GET /api/items
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	items, err := h.uc.ListItems(page)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(items)
}

// Delete removes an item.
// DELETE /api/items/:id
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteItem(c.Params("id")); err != nil {
		return crudError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
