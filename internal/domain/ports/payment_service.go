package ports

import (
	"context"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/shopspring/decimal"
)

// PaymentRequest is one payment attempt against a transaction
type PaymentRequest struct {
	Transaction       domain.Transaction `json:"transaction"`
	Amount            decimal.Decimal    `json:"amount"`
	SourceID          string             `json:"source_id"`
	VerificationToken string             `json:"verification_token,omitempty"`
	CustomerID        string             `json:"customer_id,omitempty"`
}

// PaymentResult is the outcome of a successful payment attempt
type PaymentResult struct {
	TransactionID  int64             `json:"transaction_id"`
	OrderID        string            `json:"order_id,omitempty"`
	OrderVersion   int64             `json:"order_version,omitempty"`
	PaymentID      string            `json:"payment_id"`
	Status         string            `json:"status"`
	ReceiptURL     string            `json:"receipt_url,omitempty"`
	AmountMinor    int64             `json:"amount_minor"`
	Currency       string            `json:"currency"`
	IdempotencyKey string            `json:"idempotency_key"`
	Adjustment     domain.Adjustment `json:"adjustment"`
}

// CheckoutService charges transactions and cancels abandoned orders
type CheckoutService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	CancelOrder(ctx context.Context, txn domain.Transaction) error
	ListLocations(ctx context.Context) ([]models.Location, error)
}
