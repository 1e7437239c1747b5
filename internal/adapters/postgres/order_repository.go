package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

const (
	upsertOrderSQL = `
INSERT INTO square_orders (transaction_id, order_id, order_version, payment_id, idempotency_key, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (transaction_id) DO UPDATE SET
    order_id        = EXCLUDED.order_id,
    order_version   = EXCLUDED.order_version,
    payment_id      = EXCLUDED.payment_id,
    idempotency_key = EXCLUDED.idempotency_key,
    status          = EXCLUDED.status,
    updated_at      = NOW()`

	selectOrderSQL = `
SELECT transaction_id, order_id, order_version, payment_id, idempotency_key, status, created_at, updated_at
FROM square_orders
WHERE transaction_id = $1`

	lockOrderSQL = selectOrderSQL + ` FOR UPDATE`

	markPaidSQL = `
UPDATE square_orders
SET payment_id = $2, status = 'paid', updated_at = NOW()
WHERE transaction_id = $1`

	markCanceledSQL = `
UPDATE square_orders
SET order_version = $2, status = 'canceled', updated_at = NOW()
WHERE transaction_id = $1`
)

// OrderRepository implements ports.OrderRepository on the square_orders table
type OrderRepository struct {
	db      ports.DBPort
	timeout time.Duration
}

// NewOrderRepository creates a new order repository
// timeout <= 0 disables the per-query timeout
func NewOrderRepository(db ports.DBPort, timeout time.Duration) *OrderRepository {
	return &OrderRepository{db: db, timeout: timeout}
}

func (r *OrderRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Save inserts or replaces the record for a transaction
func (r *OrderRepository) Save(ctx context.Context, record *domain.OrderRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	status := record.Status
	if status == "" {
		status = domain.OrderStatusOpen
	}

	_, err := r.db.GetDB().Exec(ctx, upsertOrderSQL,
		record.TransactionID,
		record.OrderID,
		record.OrderVersion,
		nullText(record.PaymentID),
		record.IdempotencyKey,
		string(status),
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "save order", err)
	}
	return nil
}

// GetByTransactionID returns domain.ErrOrderNotFound when nothing is stored
func (r *OrderRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*domain.OrderRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	record, err := scanOrder(r.db.GetDB().QueryRow(ctx, selectOrderSQL, transactionID))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound.WithDetail("transaction_id", transactionID)
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get order", err)
	}
	return record, nil
}

// MarkPaid records the payment made against the order
func (r *OrderRepository) MarkPaid(ctx context.Context, transactionID int64, paymentID string) error {
	return r.transition(ctx, transactionID, func(ctx context.Context, tx pgx.Tx, record *domain.OrderRecord) error {
		if record.Status == domain.OrderStatusCanceled {
			return domain.ErrOrderNotCancellable.
				WithDetail("order_id", record.OrderID).
				WithDetail("status", string(record.Status))
		}
		_, err := tx.Exec(ctx, markPaidSQL, transactionID, paymentID)
		return err
	})
}

// MarkCanceled records the order version after cancellation
func (r *OrderRepository) MarkCanceled(ctx context.Context, transactionID int64, orderVersion int64) error {
	return r.transition(ctx, transactionID, func(ctx context.Context, tx pgx.Tx, record *domain.OrderRecord) error {
		if !record.CanBeCanceled() {
			return domain.ErrOrderNotCancellable.
				WithDetail("order_id", record.OrderID).
				WithDetail("status", string(record.Status))
		}
		_, err := tx.Exec(ctx, markCanceledSQL, transactionID, orderVersion)
		return err
	})
}

// transition locks the row, checks it with apply and writes the new state in one transaction
func (r *OrderRepository) transition(
	ctx context.Context,
	transactionID int64,
	apply func(ctx context.Context, tx pgx.Tx, record *domain.OrderRecord) error,
) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		record, err := scanOrder(tx.QueryRow(ctx, lockOrderSQL, transactionID))
		if err != nil {
			if isNoRows(err) {
				return domain.ErrOrderNotFound.WithDetail("transaction_id", transactionID)
			}
			return err
		}
		return apply(ctx, tx, record)
	})
	if err == nil {
		return nil
	}
	if domain.GetErrorCode(err) != "" {
		return err
	}
	return domain.WrapError(domain.ErrorCodeDatabaseError, fmt.Sprintf("update order %d", transactionID), err)
}

func scanOrder(row pgx.Row) (*domain.OrderRecord, error) {
	var (
		record    domain.OrderRecord
		paymentID pgtype.Text
		status    string
	)
	if err := row.Scan(
		&record.TransactionID,
		&record.OrderID,
		&record.OrderVersion,
		&paymentID,
		&record.IdempotencyKey,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	record.PaymentID = paymentID.String
	record.Status = domain.OrderStatus(status)
	return &record, nil
}
