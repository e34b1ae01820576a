package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/auth"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/billing"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/usecase"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	ClientUC      *billing.ClientUseCase
	CreateInvoice *billing.CreateInvoiceUseCase
	Orchestrator  *billing.ETAOrchestrator
	PDFUC         *billing.PDFUseCase
	ItemUC        *usecase.ItemUseCase
	TaxUC         *usecase.TaxUseCase
	ETAUC         *usecase.ETAUseCase
	JWTSecret     string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Protected routes (Bearer token required)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Clients
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", RequireRole(entity.RoleAdmin), clientHandler.Delete)

	// Items
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Post("/", itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", RequireRole(entity.RoleAdmin), itemHandler.Delete)

	// Taxes (admin-managed)
	taxes := protected.Group("/taxes")
	taxHandler := NewTaxHandler(deps.TaxUC)
	taxes.Post("/", RequireRole(entity.RoleAdmin), taxHandler.Create)
	taxes.Get("/", taxHandler.List)
	taxes.Get("/:id", taxHandler.GetByID)
	taxes.Put("/:id", RequireRole(entity.RoleAdmin), taxHandler.Update)
	taxes.Delete("/:id", RequireRole(entity.RoleAdmin), taxHandler.Delete)

	// Invoices and the submission lifecycle
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.Orchestrator, deps.PDFUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/bulk-submit", invoiceHandler.BulkSubmit)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/submit", invoiceHandler.Submit)
	invoices.Get("/:id/eta", invoiceHandler.ETAStatus)
	invoices.Post("/:id/cancel", invoiceHandler.Cancel)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)

	// Authority read surface
	eta := protected.Group("/eta")
	etaHandler := NewETAHandler(deps.ETAUC)
	eta.Get("/taxpayers/:taxId", etaHandler.VerifyTaxpayer)
	eta.Get("/documents/recent", etaHandler.Recent)
	eta.Post("/documents/search", etaHandler.Search)
	eta.Get("/documents/:uuid", etaHandler.GetDocument)
	eta.Get("/documents/:uuid/printout", etaHandler.Printout)
}
