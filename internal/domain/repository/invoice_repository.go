package repository

import "github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"

// InvoiceRepository is the persistence port for Invoice and its lines.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	CreateLine(line *entity.InvoiceLine) error
	GetByID(id string) (*entity.Invoice, error)
	GetByNumber(number string) (*entity.Invoice, error)
	GetLinesByInvoiceID(invoiceID string) ([]*entity.InvoiceLine, error)
	List(status string, limit, offset int) ([]*entity.Invoice, error)
	// UpdateETA persists only the ETA integration envelope of one invoice
	// (submission id, status, response, timestamps, cancellation reason)
	// atomically with respect to that row.
	UpdateETA(invoice *entity.Invoice) error
}
