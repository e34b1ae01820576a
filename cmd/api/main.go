package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/auth"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/billing"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/usecase"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
	infrapdf "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/pdf"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/postgres"
	httpRouter "github.com/ahmedelazaizi/invoiceportaleta/internal/interfaces/http"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}
	company := config.LoadCompany()

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("eta_env", cfg.ETA.Environment).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	taxRepo := postgres.NewTaxRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Authority client: token cache, HMAC signing and retrying transport.
	etaClient := infraeta.NewClient(cfg.ETA, log.Zerolog())
	docBuilder := infraeta.NewDocumentBuilder(company)

	orchestrator := billing.NewETAOrchestrator(invoiceRepo, docBuilder, etaClient, log.Zerolog())
	createInvoiceUC := billing.NewCreateInvoiceUseCase(txRunner, invoiceRepo, clientRepo, itemRepo, orchestrator)
	clientUC := billing.NewClientUseCase(clientRepo)
	pdfUC := billing.NewPDFUseCase(invoiceRepo, company, infrapdf.NewMarotoPDFGenerator())

	itemUC := usecase.NewItemUseCase(itemRepo)
	taxUC := usecase.NewTaxUseCase(taxRepo)
	etaUC := usecase.NewETAUseCase(etaClient)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invoice Portal ETA API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		ClientUC:      clientUC,
		CreateInvoice: createInvoiceUC,
		Orchestrator:  orchestrator,
		PDFUC:         pdfUC,
		ItemUC:        itemUC,
		TaxUC:         taxUC,
		ETAUC:         etaUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, closing server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
