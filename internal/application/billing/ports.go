package billing

import (
	"context"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
)

// TxRunner runs fn inside one database transaction with billing repositories
// bound to it. fn returning an error rolls the transaction back.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		clientRepo repository.ClientRepository,
		itemRepo repository.ItemRepository,
	) error) error
}
