package repository

import "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"

// TaxRepository is the persistence port for configurable tax rates.
type TaxRepository interface {
	Create(tax *entity.Tax) error
	GetByID(id string) (*entity.Tax, error)
	Update(tax *entity.Tax) error
	List(limit, offset int) ([]*entity.Tax, error)
	Delete(id string) error
}
