package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/billing"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
)

// ClientHandler handles billing counterparty requests (protected).
type ClientHandler struct {
	uc *billing.ClientUseCase
}

// NewClientHandler builds the handler.
func NewClientHandler(uc *billing.ClientUseCase) *ClientHandler {
	return &ClientHandler{uc: uc}
}

// Create creates a client.
// POST /api/clients
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	client, err := h.uc.CreateClient(in)
	if err != nil {
		return crudError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// GetByID fetches one client.
// GET /api/clients/:id
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	client, err := h.uc.GetClient(c.Params("id"))
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(client)
}

// Update rewrites a client.
// PUT /api/clients/:id
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid body"})
	}
	client, err := h.uc.UpdateClient(c.Params("id"), in)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(client)
}

// List returns clients paginated.
// GET /api/clients
func (h *ClientHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid pagination"})
	}
	clients, err := h.uc.ListClients(page)
	if err != nil {
		return crudError(c, err)
	}
	return c.JSON(clients)
}

// Delete removes a client.
// DELETE /api/clients/:id
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteClient(c.Params("id")); err != nil {
		return crudError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// crudError maps domain errors to HTTP statuses for plain CRUD surfaces.
func crudError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
