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

var _ repository.TaxRepository = (*TaxRepo)(nil)

// TaxRepo implements TaxRepository (usable with pool or tx).
type TaxRepo struct {
	q Querier
}

// NewTaxRepository builds the adapter. Pass a pool or a tx (Querier).
func NewTaxRepository(q Querier) *TaxRepo {
	return &TaxRepo{q: q}
}

// Create persists a new tax rate.
func (r *TaxRepo) Create(tax *entity.Tax) error {
	if tax.ID == "" {
		tax.ID = uuid.New().String()
	}
	query := `
		INSERT INTO taxes (id, name, rate, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		tax.ID, tax.Name, tax.Rate, nullIfEmpty(tax.Description), tax.CreatedAt, tax.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tax %s: %w", tax.Name, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert tax: %w", err)
	}
	return nil
}

// GetByID fetches one tax rate by primary key.
func (r *TaxRepo) GetByID(id string) (*entity.Tax, error) {
	query := `SELECT id, name, rate, COALESCE(description, ''), created_at, updated_at FROM taxes WHERE id = $1`
	var t entity.Tax
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&t.ID, &t.Name, &t.Rate, &t.Description, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tax %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tax: %w", err)
	}
	return &t, nil
}

// Update rewrites all mutable tax fields.
func (r *TaxRepo) Update(tax *entity.Tax) error {
	query := `UPDATE taxes SET name = $2, rate = $3, description = $4, updated_at = $5 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		tax.ID, tax.Name, tax.Rate, nullIfEmpty(tax.Description), tax.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tax: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tax %s: %w", tax.ID, domain.ErrNotFound)
	}
	return nil
}

// List returns tax rates ordered by name.
func (r *TaxRepo) List(limit, offset int) ([]*entity.Tax, error) {
	query := `SELECT id, name, rate, COALESCE(description, ''), created_at, updated_at FROM taxes ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query taxes: %w", err)
	}
	defer rows.Close()

	var taxes []*entity.Tax
	for rows.Next() {
		var t entity.Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		taxes = append(taxes, &t)
	}
	return taxes, rows.Err()
}

// Delete removes a tax rate.
func (r *TaxRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM taxes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tax: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tax %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
