package repository

import "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"

// ClientRepository is the persistence port for Client (DIP; the
// implementation lives in infrastructure).
type ClientRepository interface {
	Create(client *entity.Client) error
	GetByID(id string) (*entity.Client, error)
	GetByEmail(email string) (*entity.Client, error)
	Update(client *entity.Client) error
	List(limit, offset int) ([]*entity.Client, error)
	Delete(id string) error
}
