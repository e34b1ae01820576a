package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
)

// ItemUseCase manages the item catalog.
type ItemUseCase struct {
	itemRepo repository.ItemRepository
}

// NewItemUseCase builds the use case.
func NewItemUseCase(itemRepo repository.ItemRepository) *ItemUseCase {
	return &ItemUseCase{itemRepo: itemRepo}
}

// CreateItem validates and persists a catalog item.
func (uc *ItemUseCase) CreateItem(in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if in.Name == "" || in.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() || in.TaxRate.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	unitType := in.UnitType
	if unitType == "" {
		unitType = entity.UnitTypeEach
	}
	now := time.Now()
	item := &entity.Item{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		UnitType:    unitType,
		Price:       in.Price,
		TaxRate:     in.TaxRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.itemRepo.Create(item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetItem fetches one item.
func (uc *ItemUseCase) GetItem(id string) (*dto.ItemResponse, error) {
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// UpdateItem rewrites an item's mutable fields.
func (uc *ItemUseCase) UpdateItem(id string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		item.Name = in.Name
	}
	if in.Code != "" {
		item.Code = in.Code
	}
	if in.UnitType != "" {
		item.UnitType = in.UnitType
	}
	if !in.Price.IsZero() {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		item.Price = in.Price
	}
	if !in.TaxRate.IsZero() {
		if in.TaxRate.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		item.TaxRate = in.TaxRate
	}
	item.Description = in.Description
	item.UpdatedAt = time.Now()

	if err := uc.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// ListItems returns items paginated.
func (uc *ItemUseCase) ListItems(page dto.PageRequest) ([]*dto.ItemResponse, error) {
	page.DefaultPage()
	items, err := uc.itemRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ItemResponse, len(items))
	for i, it := range items {
		out[i] = toItemResponse(it)
	}
	return out, nil
}

// DeleteItem removes a catalog item.
func (uc *ItemUseCase) DeleteItem(id string) error {
	return uc.itemRepo.Delete(id)
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Code:        it.Code,
		Description: it.Description,
		UnitType:    it.UnitType,
		Price:       it.Price,
		TaxRate:     it.TaxRate,
	}
}
