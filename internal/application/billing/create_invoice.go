package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	dometa "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/eta"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
)

// CreateInvoiceUseCase creates an invoice with its lines in one transaction
// and optionally dispatches it to the tax authority after commit.
type CreateInvoiceUseCase struct {
	txRunner     TxRunner
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	itemRepo     repository.ItemRepository
	orchestrator *ETAOrchestrator
}

// NewCreateInvoiceUseCase builds the use case.
func NewCreateInvoiceUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	itemRepo repository.ItemRepository,
	orchestrator *ETAOrchestrator,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		txRunner:     txRunner,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		itemRepo:     itemRepo,
		orchestrator: orchestrator,
	}
}

// CreateInvoice validates the request, snapshots the client onto the invoice,
// computes all line amounts and totals, and persists header plus lines
// atomically. Submission to the authority, when requested, happens only after
// the transaction commits.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.Number == "" || in.ClientID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// Duplicate number check up front; the unique constraint is the backstop.
	if existing, err := uc.invoiceRepo.GetByNumber(in.Number); err == nil && existing != nil {
		return nil, fmt.Errorf("invoice number %s: %w", in.Number, domain.ErrDuplicate)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	client, err := uc.clientRepo.GetByID(in.ClientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	issueDate := now
	if in.IssueDate != "" {
		issueDate, err = time.Parse(time.RFC3339, in.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("issue_date: %w", domain.ErrInvalidInput)
		}
	}
	var dueDate *time.Time
	if in.DueDate != "" {
		d, err := time.Parse(time.RFC3339, in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("due_date: %w", domain.ErrInvalidInput)
		}
		dueDate = &d
	}
	currency := in.Currency
	if currency == "" {
		currency = "EGP"
	}

	invoice := &entity.Invoice{
		ID:                   uuid.New().String(),
		Number:               in.Number,
		UserID:               userID,
		ClientID:             client.ID,
		ClientName:           client.Name,
		ClientEmail:          client.Email,
		ClientPhone:          client.Phone,
		ClientAddress:        client.Address,
		ClientType:           client.Type,
		ClientTaxNumber:      client.TaxNumber,
		ClientGovernate:      client.Governate,
		ClientCity:           client.City,
		ClientStreet:         client.Street,
		ClientBuildingNumber: client.BuildingNumber,
		IssueDate:            issueDate,
		DueDate:              dueDate,
		Currency:             currency,
		PaymentMethod:        in.PaymentMethod,
		Notes:                in.Notes,
		Status:               "pending",
		ETAStatus:            entity.ETAStatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	lines, err := uc.buildLines(invoice.ID, in.Lines)
	if err != nil {
		return nil, err
	}
	if err := dometa.ValidateLines(lines); err != nil {
		return nil, err
	}

	amounts := make([]dometa.LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = dometa.ComputeLineAmounts(l.Quantity, l.UnitPrice, l.DiscountRate, l.TaxRate)
	}
	totals := dometa.ComputeDocumentTotals(amounts)
	invoice.NetTotal = totals.NetAmount
	invoice.TaxTotal = totals.TotalTax
	invoice.GrandTotal = totals.TotalAmount

	err = uc.txRunner.Run(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.ClientRepository,
		_ repository.ItemRepository,
	) error {
		if err := invoiceRepo.Create(invoice); err != nil {
			return err
		}
		for _, l := range lines {
			if err := invoiceRepo.CreateLine(l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.Submit {
		uc.orchestrator.SubmitAsync(invoice.ID)
	}
	return ToInvoiceResponse(invoice, lines), nil
}

// buildLines materializes request lines, prefilling description, price and
// tax rate from the catalog when an item code is given.
func (uc *CreateInvoiceUseCase) buildLines(invoiceID string, in []dto.InvoiceLineRequest) ([]*entity.InvoiceLine, error) {
	lines := make([]*entity.InvoiceLine, len(in))
	for i, req := range in {
		line := &entity.InvoiceLine{
			ID:           uuid.New().String(),
			InvoiceID:    invoiceID,
			Description:  req.Description,
			ItemCode:     req.ItemCode,
			ItemType:     entity.ItemTypeGoodsServices,
			UnitType:     entity.UnitTypeEach,
			Quantity:     req.Quantity,
			UnitPrice:    req.UnitPrice,
			DiscountRate: req.DiscountRate,
			TaxRate:      req.TaxRate,
		}
		if req.ItemCode != "" {
			item, err := uc.itemRepo.GetByCode(req.ItemCode)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if line.Description == "" {
				line.Description = item.Name
			}
			if item.UnitType != "" {
				line.UnitType = item.UnitType
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = item.Price
			}
			if line.TaxRate.IsZero() {
				line.TaxRate = item.TaxRate
			}
		}
		a := dometa.ComputeLineAmounts(line.Quantity, line.UnitPrice, line.DiscountRate, line.TaxRate)
		line.DiscountAmount = a.DiscountAmount
		line.TaxAmount = a.TaxAmount
		line.Total = a.Total
		lines[i] = line
	}
	return lines, nil
}

// GetInvoice returns one invoice with its lines.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv, lines), nil
}

// ListInvoices returns invoices, optionally filtered by ETA status, without lines.
func (uc *CreateInvoiceUseCase) ListInvoices(ctx context.Context, status string, page dto.PageRequest) ([]*dto.InvoiceResponse, error) {
	page.DefaultPage()
	invoices, err := uc.invoiceRepo.List(status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = ToInvoiceResponse(inv, nil)
	}
	return out, nil
}

// ToInvoiceResponse maps an invoice plus its lines to the response DTO.
func ToInvoiceResponse(inv *entity.Invoice, lines []*entity.InvoiceLine) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		ClientID:      inv.ClientID,
		ClientName:    inv.ClientName,
		IssueDate:     inv.IssueDate.UTC().Format(time.RFC3339),
		Currency:      inv.Currency,
		PaymentMethod: inv.PaymentMethod,
		Notes:         inv.Notes,
		NetTotal:      inv.NetTotal,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Status:        inv.Status,
		ETA:           *toETAStatusDTO(inv),
	}
	if inv.DueDate != nil {
		resp.DueDate = inv.DueDate.UTC().Format(time.RFC3339)
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			ID:             l.ID,
			Description:    l.Description,
			ItemCode:       l.ItemCode,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountRate:   l.DiscountRate,
			DiscountAmount: l.DiscountAmount,
			TaxRate:        l.TaxRate,
			TaxAmount:      l.TaxAmount,
			Total:          l.Total,
		})
	}
	return resp
}
