package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implements ClientRepository (usable with pool or tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository builds the adapter. Pass a pool or a tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `
	id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''),
	type, COALESCE(tax_number, ''),
	COALESCE(governate, ''), COALESCE(city, ''), COALESCE(street, ''), COALESCE(building_number, ''),
	created_at, updated_at`

// Create persists a new client.
func (r *ClientRepo) Create(client *entity.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	query := `
		INSERT INTO clients (id, name, email, phone, address, type, tax_number,
			governate, city, street, building_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		client.ID, client.Name, nullIfEmpty(client.Email), nullIfEmpty(client.Phone), nullIfEmpty(client.Address),
		client.Type, nullIfEmpty(client.TaxNumber),
		nullIfEmpty(client.Governate), nullIfEmpty(client.City), nullIfEmpty(client.Street), nullIfEmpty(client.BuildingNumber),
		client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client email %s: %w", client.Email, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID fetches one client by primary key.
func (r *ClientRepo) GetByID(id string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanClient(r.q.QueryRow(context.Background(), query, id), id)
}

// GetByEmail fetches one client by email.
func (r *ClientRepo) GetByEmail(email string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email = $1`
	return r.scanClient(r.q.QueryRow(context.Background(), query, email), email)
}

func (r *ClientRepo) scanClient(row pgx.Row, key string) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Type, &c.TaxNumber,
		&c.Governate, &c.City, &c.Street, &c.BuildingNumber,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// Update rewrites all mutable client fields.
func (r *ClientRepo) Update(client *entity.Client) error {
	query := `
		UPDATE clients
		SET name = $2, email = $3, phone = $4, address = $5, type = $6, tax_number = $7,
		    governate = $8, city = $9, street = $10, building_number = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		client.ID, client.Name, nullIfEmpty(client.Email), nullIfEmpty(client.Phone), nullIfEmpty(client.Address),
		client.Type, nullIfEmpty(client.TaxNumber),
		nullIfEmpty(client.Governate), nullIfEmpty(client.City), nullIfEmpty(client.Street), nullIfEmpty(client.BuildingNumber),
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", client.ID, domain.ErrNotFound)
	}
	return nil
}

// List returns clients ordered by name.
func (r *ClientRepo) List(limit, offset int) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []*entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
			&c.Type, &c.TaxNumber,
			&c.Governate, &c.City, &c.Street, &c.BuildingNumber,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// Delete removes a client. Invoices keep their denormalized receiver snapshot.
func (r *ClientRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
