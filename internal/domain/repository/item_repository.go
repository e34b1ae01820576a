package repository

import "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"

// ItemRepository is the persistence port for catalog items.
type ItemRepository interface {
	Create(item *entity.Item) error
	GetByID(id string) (*entity.Item, error)
	GetByCode(code string) (*entity.Item, error)
	Update(item *entity.Item) error
	List(limit, offset int) ([]*entity.Item, error)
	Delete(id string) error
}
