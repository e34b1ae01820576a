package billing

import (
	"context"
	"fmt"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

// InvoicePDFGenerator renders the printable representation of an invoice.
// The Maroto implementation lives in infrastructure/pdf.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, company config.CompanyConfig, lines []*entity.InvoiceLine) ([]byte, error)
}

// PDFUseCase generates the local printable representation of an invoice.
// Works for any invoice regardless of its submission state; the rendered
// footer shows the authority submission id when one exists.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	company     config.CompanyConfig
	generator   InvoicePDFGenerator
}

// NewPDFUseCase builds the use case.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, company config.CompanyConfig, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, company: company, generator: generator}
}

// DownloadInvoicePDF loads the invoice with its lines and renders the PDF.
// Returns the bytes plus a suggested filename.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) ([]byte, string, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: load invoice: %w", err)
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: load lines: %w", err)
	}

	pdfBytes, err := uc.generator.GenerateInvoicePDF(ctx, inv, uc.company, lines)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generation failed: %w", err)
	}
	return pdfBytes, fmt.Sprintf("invoice_%s.pdf", inv.Number), nil
}
