package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
)

var maxRate = decimal.NewFromInt(100)

// TaxUseCase manages configurable tax rates.
type TaxUseCase struct {
	taxRepo repository.TaxRepository
}

// NewTaxUseCase builds the use case.
func NewTaxUseCase(taxRepo repository.TaxRepository) *TaxUseCase {
	return &TaxUseCase{taxRepo: taxRepo}
}

// CreateTax validates and persists a tax rate.
func (uc *TaxUseCase) CreateTax(in dto.CreateTaxRequest) (*dto.TaxResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Rate.IsNegative() || in.Rate.GreaterThan(maxRate) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	tax := &entity.Tax{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Rate:        in.Rate,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.taxRepo.Create(tax); err != nil {
		return nil, err
	}
	return toTaxResponse(tax), nil
}

// GetTax fetches one tax rate.
func (uc *TaxUseCase) GetTax(id string) (*dto.TaxResponse, error) {
	tax, err := uc.taxRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return toTaxResponse(tax), nil
}

// UpdateTax rewrites a tax rate.
func (uc *TaxUseCase) UpdateTax(id string, in dto.CreateTaxRequest) (*dto.TaxResponse, error) {
	tax, err := uc.taxRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		tax.Name = in.Name
	}
	if in.Rate.IsNegative() || in.Rate.GreaterThan(maxRate) {
		return nil, domain.ErrInvalidInput
	}
	if !in.Rate.IsZero() {
		tax.Rate = in.Rate
	}
	tax.Description = in.Description
	tax.UpdatedAt = time.Now()

	if err := uc.taxRepo.Update(tax); err != nil {
		return nil, err
	}
	return toTaxResponse(tax), nil
}

// ListTaxes returns tax rates paginated.
func (uc *TaxUseCase) ListTaxes(page dto.PageRequest) ([]*dto.TaxResponse, error) {
	page.DefaultPage()
	taxes, err := uc.taxRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TaxResponse, len(taxes))
	for i, t := range taxes {
		out[i] = toTaxResponse(t)
	}
	return out, nil
}

// DeleteTax removes a tax rate.
func (uc *TaxUseCase) DeleteTax(id string) error {
	return uc.taxRepo.Delete(id)
}

func toTaxResponse(t *entity.Tax) *dto.TaxResponse {
	return &dto.TaxResponse{
		ID:          t.ID,
		Name:        t.Name,
		Rate:        t.Rate,
		Description: t.Description,
	}
}
