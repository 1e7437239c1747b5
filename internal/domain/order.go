package domain

import (
	"time"
)

// AdjustmentAction is the outcome of reconciling a calculated order total
type AdjustmentAction string

const (
	AdjustmentNone        AdjustmentAction = "none"        // totals already matched
	AdjustmentLineItem    AdjustmentAction = "line_item"   // calculated total too low
	AdjustmentDiscount    AdjustmentAction = "discount"    // calculated total too high
	AdjustmentSkipped     AdjustmentAction = "skipped"     // offset above the ceiling
	AdjustmentUnavailable AdjustmentAction = "unavailable" // calculate call gave no total
)

// DefaultAdjustmentCeiling is the largest offset (minor units) corrected automatically
const DefaultAdjustmentCeiling int64 = 10

// Adjustment is the signed difference between the provider's total and the expected charge
type Adjustment struct {
	Offset int64            `json:"offset"`
	Action AdjustmentAction `json:"action"`
}

// Applied returns true if the order was patched
func (a Adjustment) Applied() bool {
	return a.Action == AdjustmentLineItem || a.Action == AdjustmentDiscount
}

// OrderStatus is the local view of a provider order's lifecycle
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

// OrderRecord is the provider order stored for a transaction
type OrderRecord struct {
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	OrderID        string      `json:"order_id"`
	PaymentID      string      `json:"payment_id,omitempty"`
	IdempotencyKey string      `json:"idempotency_key"`
	Status         OrderStatus `json:"status"`
	TransactionID  int64       `json:"transaction_id"`
	OrderVersion   int64       `json:"order_version"`
}

// CanBeCanceled returns true if the order was never paid nor canceled
func (r *OrderRecord) CanBeCanceled() bool {
	return r.Status == OrderStatusOpen && r.PaymentID == ""
}
