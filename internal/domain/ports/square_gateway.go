package ports

import (
	"context"

	"github.com/kevin07696/square-checkout/internal/domain/models"
)

// OrderCalculator prices an order without persisting it
type OrderCalculator interface {
	CalculateOrder(ctx context.Context, req *models.CalculateOrderRequest) (*models.Order, error)
}

// SquareGateway is the port to the Square REST API
// Every method returns the unwrapped provider object or a *pkgerrors.RequestError
type SquareGateway interface {
	OrderCalculator

	// CreateOrder persists an order under the request's idempotency key
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)

	// UpdateOrder updates an order; used to cancel abandoned orders
	UpdateOrder(ctx context.Context, orderID string, req *models.UpdateOrderRequest) (*models.Order, error)

	// CreatePayment charges a card source, optionally against an order
	CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error)

	// CompletePayment completes an APPROVED (delayed capture) payment
	CompletePayment(ctx context.Context, paymentID string, req *models.CompletePaymentRequest) (*models.Payment, error)

	// ListLocations returns the seller's locations
	ListLocations(ctx context.Context) ([]models.Location, error)

	// CreateCustomer creates a customer profile
	CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
}
