package order

import (
	"encoding/json"
	"testing"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequestBuilder(sandbox bool) *RequestBuilder {
	return NewRequestBuilder(util.NewIdempotencyKey(sandbox, 77), "LOC1", "Spring Gala", sandbox)
}

func TestRequestBuilder_ReferenceID(t *testing.T) {
	assert.Equal(t, "TEST-order-77", newTestRequestBuilder(true).ReferenceID(77))
	assert.Equal(t, "event-order-77", newTestRequestBuilder(false).ReferenceID(77))
}

func TestRequestBuilder_BuildOrder(t *testing.T) {
	b := newTestRequestBuilder(true)
	txn := ticketTransaction()
	items, err := BuildItems(txn, txn.Total, true, 2)
	require.NoError(t, err)

	req, err := b.BuildOrder(items, txn.ID, "CUST1")
	require.NoError(t, err)

	assert.Equal(t, b.IdempotencyKey().String(), req.IdempotencyKey)
	assert.Equal(t, "LOC1", req.Order.LocationID)
	assert.Equal(t, "TEST-order-77", req.Order.ReferenceID)
	assert.Equal(t, "CUST1", req.Order.CustomerID)
	assert.Len(t, req.Order.LineItems, 2)
	assert.Len(t, req.Order.Taxes, 1)
	assert.True(t, items.Sealed(), "building the order seals the accumulator")

	_, err = b.BuildOrder(items, txn.ID, "")
	assert.ErrorIs(t, err, domain.ErrOrderSealed)
}

func TestRequestBuilder_BuildOrderOmitsEmptyCollections(t *testing.T) {
	b := newTestRequestBuilder(false)
	items := NewItems("USD", 2)
	require.NoError(t, items.AddItem("Ticket", 1, dec("10"), false))

	req, err := b.BuildOrder(items, 77, "")
	require.NoError(t, err)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var envelope struct {
		IdempotencyKey string                     `json:"idempotency_key"`
		Order          map[string]json.RawMessage `json:"order"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))

	assert.NotEmpty(t, envelope.IdempotencyKey)
	assert.Contains(t, envelope.Order, "line_items")
	assert.Contains(t, envelope.Order, "location_id")
	assert.Contains(t, envelope.Order, "reference_id")
	assert.NotContains(t, envelope.Order, "taxes")
	assert.NotContains(t, envelope.Order, "discounts")
	assert.NotContains(t, envelope.Order, "fulfillments")
	assert.NotContains(t, envelope.Order, "customer_id")
	assert.NotContains(t, envelope.Order, "version")
}

func TestRequestBuilder_BuildOrderRequiresLocation(t *testing.T) {
	b := NewRequestBuilder(util.NewIdempotencyKey(false, 1), "", "", false)

	_, err := b.BuildOrder(NewItems("USD", 2), 1, "")
	assert.True(t, domain.IsValidationError(err))
}

func TestRequestBuilder_BuildPayment(t *testing.T) {
	b := newTestRequestBuilder(false)

	req := b.BuildPayment(PaymentParams{
		SourceID:          "cnon:card-nonce-ok",
		Currency:          "USD",
		OrderID:           "ORDER1",
		VerificationToken: "verf",
		AmountMinor:       10640,
		TransactionID:     77,
	})

	assert.Equal(t, "cnon:card-nonce-ok", req.SourceID)
	assert.Equal(t, b.IdempotencyKey().String(), req.IdempotencyKey)
	assert.Equal(t, models.Money{Amount: 10640, Currency: "USD"}, req.AmountMoney)
	assert.Equal(t, "LOC1", req.LocationID)
	assert.Equal(t, "event-order-77", req.ReferenceID)
	assert.Equal(t, "Spring Gala - Transaction 77", req.Note)
	assert.Equal(t, "ORDER1", req.OrderID)
	assert.Equal(t, "verf", req.VerificationToken)
	require.NotNil(t, req.Autocomplete)
	assert.False(t, *req.Autocomplete)
}

func TestRequestBuilder_BuildPaymentWithoutOrder(t *testing.T) {
	b := newTestRequestBuilder(true)

	req := b.BuildPayment(PaymentParams{SourceID: "cnon", Currency: "USD", AmountMinor: 500, TransactionID: 77, Autocomplete: true})

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.NotContains(t, body, "order_id")
	assert.NotContains(t, body, "verification_token")
	assert.NotContains(t, body, "customer_id")
	assert.JSONEq(t, `{"amount":500,"currency":"USD"}`, string(body["amount_money"]))
	assert.JSONEq(t, `true`, string(body["autocomplete"]))
}

// TestRequestBuilder_OrderAndPaymentShareKey verifies one attempt uses one idempotency key
func TestRequestBuilder_OrderAndPaymentShareKey(t *testing.T) {
	b := newTestRequestBuilder(true)
	items := NewItems("USD", 2)

	order, err := b.BuildOrder(items, 77, "")
	require.NoError(t, err)
	payment := b.BuildPayment(PaymentParams{TransactionID: 77})

	assert.Equal(t, order.IdempotencyKey, payment.IdempotencyKey)
}

func TestRequestBuilder_BuildCancel(t *testing.T) {
	b := newTestRequestBuilder(false)

	req, err := b.BuildCancel("ORDER1", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(4), req.Order.Version)
	assert.Equal(t, models.OrderStateCanceled, req.Order.State)
	assert.Equal(t, "LOC1", req.Order.LocationID)
	assert.Equal(t, b.IdempotencyKey().String(), req.IdempotencyKey)
	assert.Empty(t, req.Order.LineItems)

	_, err = b.BuildCancel("", 3)
	assert.True(t, domain.IsValidationError(err))
}

func TestRequestBuilder_Note(t *testing.T) {
	assert.Equal(t, "Event registration - Transaction 5", NewRequestBuilder(util.IdempotencyKey{}, "L", "", false).Note(5))
}

func TestRequestBuilder_BuildCustomer(t *testing.T) {
	b := newTestRequestBuilder(false)
	txn := domain.Transaction{ID: 77, RegistrantName: "Ada King Lovelace", RegistrantEmail: "ada@example.com"}

	req := b.BuildCustomer(txn)

	assert.Equal(t, "Ada King", req.GivenName)
	assert.Equal(t, "Lovelace", req.FamilyName)
	assert.Equal(t, "ada@example.com", req.EmailAddress)
	assert.Equal(t, "event-order-77", req.ReferenceID)

	single := b.BuildCustomer(domain.Transaction{ID: 1})
	assert.Equal(t, "Unknown", single.GivenName)
	assert.Empty(t, single.FamilyName)
}
