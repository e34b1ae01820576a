package repository

import "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"

// UserRepository is the persistence port for application users.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
}
