package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	infraeta "github.com/ahmedelazaizi/invoiceportaleta/internal/infrastructure/eta"
	pkgeta "github.com/ahmedelazaizi/invoiceportaleta/pkg/eta"
)

// ETADirectory is the read-only surface of the authority API used outside the
// submission cycle: taxpayer lookups and the document registry.
type ETADirectory interface {
	VerifyTaxpayer(ctx context.Context, taxID string) (*infraeta.TaxpayerInfo, error)
	GetDocument(ctx context.Context, documentUUID string) (json.RawMessage, error)
	GetDocumentPrintout(ctx context.Context, documentUUID, format string) ([]byte, error)
	RecentDocuments(ctx context.Context, pageSize, pageNumber int) (json.RawMessage, error)
	SearchDocuments(ctx context.Context, criteria map[string]any, pageSize, pageNumber int) (json.RawMessage, error)
}

// ETAUseCase exposes the authority's read surface to the API and the CLI.
type ETAUseCase struct {
	directory ETADirectory
}

// NewETAUseCase builds the use case.
func NewETAUseCase(directory ETADirectory) *ETAUseCase {
	return &ETAUseCase{directory: directory}
}

// VerifyTaxpayer checks a registration number against the authority registry.
// The number is validated locally first; a malformed number never hits the
// network.
func (uc *ETAUseCase) VerifyTaxpayer(ctx context.Context, taxID string) (*dto.TaxpayerResponse, error) {
	normalized := pkgeta.NormalizeRegistrationNumber(taxID)
	if err := pkgeta.ValidateRegistrationNumber(normalized); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	info, err := uc.directory.VerifyTaxpayer(ctx, normalized)
	if err != nil {
		return nil, err
	}
	resp := &dto.TaxpayerResponse{TaxNumber: normalized, Found: info.Found}
	if info.Found && len(info.Raw) > 0 {
		var details any
		if err := json.Unmarshal(info.Raw, &details); err == nil {
			resp.Details = details
		}
	}
	return resp, nil
}

// GetDocument fetches one document from the authority registry by uuid.
func (uc *ETAUseCase) GetDocument(ctx context.Context, documentUUID string) (json.RawMessage, error) {
	if documentUUID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.directory.GetDocument(ctx, documentUUID)
}

// GetDocumentPrintout downloads the authority-rendered document.
func (uc *ETAUseCase) GetDocumentPrintout(ctx context.Context, documentUUID, format string) ([]byte, error) {
	if documentUUID == "" {
		return nil, domain.ErrInvalidInput
	}
	if format == "" {
		format = "pdf"
	}
	return uc.directory.GetDocumentPrintout(ctx, documentUUID, format)
}

// RecentDocuments lists the latest documents from the registry.
func (uc *ETAUseCase) RecentDocuments(ctx context.Context, page dto.PageRequest) (json.RawMessage, error) {
	page.DefaultPage()
	pageNumber := page.Offset/page.Limit + 1
	return uc.directory.RecentDocuments(ctx, page.Limit, pageNumber)
}

// SearchDocuments queries the registry with arbitrary criteria.
func (uc *ETAUseCase) SearchDocuments(ctx context.Context, criteria map[string]any, page dto.PageRequest) (json.RawMessage, error) {
	page.DefaultPage()
	pageNumber := page.Offset/page.Limit + 1
	return uc.directory.SearchDocuments(ctx, criteria, page.Limit, pageNumber)
}
