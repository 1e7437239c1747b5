package order

import (
	"fmt"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/internal/util"
)

// RequestBuilder assembles the Square request bodies of one attempt under a single idempotency key
type RequestBuilder struct {
	key        util.IdempotencyKey
	locationID string
	siteName   string
	sandbox    bool
}

// NewRequestBuilder creates a builder bound to key
func NewRequestBuilder(key util.IdempotencyKey, locationID, siteName string, sandbox bool) *RequestBuilder {
	return &RequestBuilder{
		key:        key,
		locationID: locationID,
		siteName:   siteName,
		sandbox:    sandbox,
	}
}

// PaymentParams describes a CreatePayment call
type PaymentParams struct {
	SourceID          string
	Currency          string
	OrderID           string
	VerificationToken string
	CustomerID        string
	AmountMinor       int64
	TransactionID     int64
	Autocomplete      bool
}

// IdempotencyKey returns the key every request of this builder carries
func (b *RequestBuilder) IdempotencyKey() util.IdempotencyKey {
	return b.key
}

// ReferenceID returns "TEST-order-N" in sandbox and "event-order-N" otherwise
func (b *RequestBuilder) ReferenceID(transactionID int64) string {
	prefix := "event"
	if b.sandbox {
		prefix = "TEST"
	}
	return fmt.Sprintf("%s-order-%d", prefix, transactionID)
}

// Header returns the order fields that do not come from the line-item builder
func (b *RequestBuilder) Header(transactionID int64, customerID string) models.Order {
	return models.Order{
		LocationID:  b.locationID,
		ReferenceID: b.ReferenceID(transactionID),
		CustomerID:  customerID,
	}
}

// BuildOrder seals items into a CreateOrder request
func (b *RequestBuilder) BuildOrder(items *Items, transactionID int64, customerID string) (*models.CreateOrderRequest, error) {
	if b.locationID == "" {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "location_id")
	}

	order, err := items.Finalize(b.Header(transactionID, customerID))
	if err != nil {
		return nil, fmt.Errorf("finalize order: %w", err)
	}

	return &models.CreateOrderRequest{
		IdempotencyKey: b.key.String(),
		Order:          order,
	}, nil
}

// BuildPayment assembles a CreatePayment request
func (b *RequestBuilder) BuildPayment(p PaymentParams) *models.CreatePaymentRequest {
	autocomplete := p.Autocomplete
	return &models.CreatePaymentRequest{
		SourceID:       p.SourceID,
		IdempotencyKey: b.key.String(),
		AmountMoney: models.Money{
			Amount:   p.AmountMinor,
			Currency: p.Currency,
		},
		LocationID:        b.locationID,
		ReferenceID:       b.ReferenceID(p.TransactionID),
		Note:              b.Note(p.TransactionID),
		OrderID:           p.OrderID,
		VerificationToken: p.VerificationToken,
		CustomerID:        p.CustomerID,
		Autocomplete:      &autocomplete,
	}
}

// Note returns the informational payment note
func (b *RequestBuilder) Note(transactionID int64) string {
	site := b.siteName
	if site == "" {
		site = "Event registration"
	}
	return fmt.Sprintf("%s - Transaction %d", site, transactionID)
}

// BuildCancel assembles the UpdateOrder request cancelling orderID
// The body declares orderVersion+1, the version the cancellation supersedes
func (b *RequestBuilder) BuildCancel(orderID string, orderVersion int64) (*models.UpdateOrderRequest, error) {
	if orderID == "" {
		return nil, domain.ErrValidationMissingField.WithDetail("field", "order_id")
	}

	return &models.UpdateOrderRequest{
		IdempotencyKey: b.key.String(),
		Order: &models.Order{
			LocationID: b.locationID,
			Version:    orderVersion + 1,
			State:      models.OrderStateCanceled,
		},
	}, nil
}

// BuildCustomer assembles a CreateCustomer request for the registrant
func (b *RequestBuilder) BuildCustomer(txn domain.Transaction) *models.CreateCustomerRequest {
	given, family := splitName(txn.DisplayName())
	return &models.CreateCustomerRequest{
		IdempotencyKey: b.key.String(),
		GivenName:      given,
		FamilyName:     family,
		EmailAddress:   txn.RegistrantEmail,
		ReferenceID:    b.ReferenceID(txn.ID),
		Note:           b.Note(txn.ID),
	}
}

func splitName(name string) (string, string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
