package ports

import (
	"context"

	"github.com/kevin07696/square-checkout/internal/domain"
)

// OrderRepository stores the provider order created for each transaction
// Needed to cancel abandoned orders with the right version
type OrderRepository interface {
	// Save inserts or replaces the record for a transaction
	Save(ctx context.Context, record *domain.OrderRecord) error

	// GetByTransactionID returns domain.ErrOrderNotFound when nothing is stored
	GetByTransactionID(ctx context.Context, transactionID int64) (*domain.OrderRecord, error)

	// MarkPaid records the payment made against the order
	MarkPaid(ctx context.Context, transactionID int64, paymentID string) error

	// MarkCanceled records the order version after cancellation
	MarkCanceled(ctx context.Context, transactionID int64, orderVersion int64) error
}
