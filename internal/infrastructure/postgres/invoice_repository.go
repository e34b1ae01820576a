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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implements InvoiceRepository (usable with pool or tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository builds the adapter. Pass a pool or a tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, number, user_id,
	client_id, client_name, client_email, client_phone, client_address,
	client_type, client_tax_number, client_governate, client_city,
	client_street, client_building_number,
	issue_date, due_date, currency, payment_method, notes,
	net_total, tax_total, grand_total, status,
	COALESCE(eta_submission_id, ''), eta_status, COALESCE(eta_response, ''),
	eta_submission_time, eta_validation_time, eta_cancellation_time,
	COALESCE(eta_cancellation_reason, ''),
	created_at, updated_at`

// Create persists the invoice header.
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, number, user_id,
			client_id, client_name, client_email, client_phone, client_address,
			client_type, client_tax_number, client_governate, client_city,
			client_street, client_building_number,
			issue_date, due_date, currency, payment_method, notes,
			net_total, tax_total, grand_total, status, eta_status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.Number, invoice.UserID,
		invoice.ClientID, invoice.ClientName, nullIfEmpty(invoice.ClientEmail), nullIfEmpty(invoice.ClientPhone), nullIfEmpty(invoice.ClientAddress),
		invoice.ClientType, nullIfEmpty(invoice.ClientTaxNumber), nullIfEmpty(invoice.ClientGovernate), nullIfEmpty(invoice.ClientCity),
		nullIfEmpty(invoice.ClientStreet), nullIfEmpty(invoice.ClientBuildingNumber),
		invoice.IssueDate, invoice.DueDate, invoice.Currency, nullIfEmpty(invoice.PaymentMethod), nullIfEmpty(invoice.Notes),
		invoice.NetTotal, invoice.TaxTotal, invoice.GrandTotal, invoice.Status, invoice.ETAStatus,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number %s: %w", invoice.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLine persists one invoice line.
func (r *InvoiceRepo) CreateLine(line *entity.InvoiceLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_lines (id, invoice_id, description, item_code, item_type, unit_type,
			quantity, unit_price, discount_rate, discount_amount, tax_rate, tax_amount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.InvoiceID, line.Description, nullIfEmpty(line.ItemCode), line.ItemType, line.UnitType,
		line.Quantity, line.UnitPrice, line.DiscountRate, line.DiscountAmount, line.TaxRate, line.TaxAmount, line.Total,
	)
	if err != nil {
		return fmt.Errorf("insert invoice line: %w", err)
	}
	return nil
}

// GetByID fetches one invoice by primary key.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanInvoice(r.q.QueryRow(context.Background(), query, id), id)
}

// GetByNumber fetches one invoice by its unique business number.
func (r *InvoiceRepo) GetByNumber(number string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE number = $1`
	return r.scanInvoice(r.q.QueryRow(context.Background(), query, number), number)
}

func (r *InvoiceRepo) scanInvoice(row pgx.Row, key string) (*entity.Invoice, error) {
	var inv entity.Invoice
	var email, phone, address, taxNumber, governate, city, street, building *string
	var paymentMethod, notes *string
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.UserID,
		&inv.ClientID, &inv.ClientName, &email, &phone, &address,
		&inv.ClientType, &taxNumber, &governate, &city,
		&street, &building,
		&inv.IssueDate, &inv.DueDate, &inv.Currency, &paymentMethod, &notes,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &inv.Status,
		&inv.ETASubmissionID, &inv.ETAStatus, &inv.ETAResponse,
		&inv.ETASubmissionTime, &inv.ETAValidationTime, &inv.ETACancellationTime,
		&inv.ETACancellationReason,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.ClientEmail = derefStr(email)
	inv.ClientPhone = derefStr(phone)
	inv.ClientAddress = derefStr(address)
	inv.ClientTaxNumber = derefStr(taxNumber)
	inv.ClientGovernate = derefStr(governate)
	inv.ClientCity = derefStr(city)
	inv.ClientStreet = derefStr(street)
	inv.ClientBuildingNumber = derefStr(building)
	inv.PaymentMethod = derefStr(paymentMethod)
	inv.Notes = derefStr(notes)
	return &inv, nil
}

// GetLinesByInvoiceID returns the lines of one invoice in insertion order.
func (r *InvoiceRepo) GetLinesByInvoiceID(invoiceID string) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, description, COALESCE(item_code, ''), item_type, unit_type,
		       quantity, unit_price, discount_rate, discount_amount, tax_rate, tax_amount, total
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.Description, &l.ItemCode, &l.ItemType, &l.UnitType,
			&l.Quantity, &l.UnitPrice, &l.DiscountRate, &l.DiscountAmount, &l.TaxRate, &l.TaxAmount, &l.Total,
		); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// List returns invoices newest first, optionally filtered by ETA status.
func (r *InvoiceRepo) List(status string, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if status != "" {
		query += ` WHERE eta_status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var email, phone, address, taxNumber, governate, city, street, building *string
		var paymentMethod, notes *string
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.UserID,
			&inv.ClientID, &inv.ClientName, &email, &phone, &address,
			&inv.ClientType, &taxNumber, &governate, &city,
			&street, &building,
			&inv.IssueDate, &inv.DueDate, &inv.Currency, &paymentMethod, &notes,
			&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &inv.Status,
			&inv.ETASubmissionID, &inv.ETAStatus, &inv.ETAResponse,
			&inv.ETASubmissionTime, &inv.ETAValidationTime, &inv.ETACancellationTime,
			&inv.ETACancellationReason,
			&inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.ClientEmail = derefStr(email)
		inv.ClientPhone = derefStr(phone)
		inv.ClientAddress = derefStr(address)
		inv.ClientTaxNumber = derefStr(taxNumber)
		inv.ClientGovernate = derefStr(governate)
		inv.ClientCity = derefStr(city)
		inv.ClientStreet = derefStr(street)
		inv.ClientBuildingNumber = derefStr(building)
		inv.PaymentMethod = derefStr(paymentMethod)
		inv.Notes = derefStr(notes)
		invoices = append(invoices, &inv)
	}
	return invoices, rows.Err()
}

// UpdateETA writes only the ETA integration envelope of one invoice.
// Business fields are immutable after creation and never touched here.
func (r *InvoiceRepo) UpdateETA(invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET eta_submission_id       = COALESCE($2, eta_submission_id),
		    eta_status              = $3,
		    eta_response            = $4,
		    eta_submission_time     = COALESCE($5, eta_submission_time),
		    eta_validation_time     = COALESCE($6, eta_validation_time),
		    eta_cancellation_time   = COALESCE($7, eta_cancellation_time),
		    eta_cancellation_reason = COALESCE($8, eta_cancellation_reason),
		    updated_at              = $9
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		invoice.ID,
		nullIfEmpty(invoice.ETASubmissionID),
		invoice.ETAStatus,
		invoice.ETAResponse,
		invoice.ETASubmissionTime,
		invoice.ETAValidationTime,
		invoice.ETACancellationTime,
		nullIfEmpty(invoice.ETACancellationReason),
		invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("submission id %s: %w", invoice.ETASubmissionID, domain.ErrDuplicate)
		}
		return fmt.Errorf("update invoice eta envelope: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", invoice.ID, domain.ErrNotFound)
	}
	return nil
}
