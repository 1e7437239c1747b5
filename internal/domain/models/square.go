package models

// Wire payloads for the Square Orders, Payments, Locations and Customers APIs.
// Field names and nesting follow the provider's JSON exactly.

const (
	DiscountTypeFixedAmount = "FIXED_AMOUNT"

	ScopeLineItem = "LINE_ITEM"
	ScopeOrder    = "ORDER"

	TaxTypeAdditive = "ADDITIVE"

	FulfillmentTypeShipment  = "SHIPMENT"
	FulfillmentStateProposed = "PROPOSED"

	OrderStateOpen     = "OPEN"
	OrderStateCanceled = "CANCELED"
)

// Payment statuses
const (
	PaymentStatusApproved  = "APPROVED"
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusCanceled  = "CANCELED"
	PaymentStatusFailed    = "FAILED"
)

// Money is an amount in the currency's smallest unit
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// AppliedDiscount references an order-level discount from a line item
type AppliedDiscount struct {
	DiscountUID string `json:"discount_uid"`
}

// AppliedTax references an order-level tax from a line item
type AppliedTax struct {
	TaxUID string `json:"tax_uid"`
}

// OrderLineItem is one priced entry of an order
type OrderLineItem struct {
	UID              string            `json:"uid,omitempty"`
	Name             string            `json:"name"`
	Quantity         string            `json:"quantity"`
	Note             string            `json:"note,omitempty"`
	BasePriceMoney   *Money            `json:"base_price_money,omitempty"`
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts,omitempty"`
	AppliedTaxes     []AppliedTax      `json:"applied_taxes,omitempty"`
	TotalMoney       *Money            `json:"total_money,omitempty"`
}

// OrderLineItemDiscount is a discount applied to line items or to the whole order
type OrderLineItemDiscount struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	AmountMoney *Money `json:"amount_money,omitempty"`
	Scope       string `json:"scope"`
}

// OrderLineItemTax is a percentage tax computed by the provider
type OrderLineItemTax struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Percentage string `json:"percentage"`
	Scope      string `json:"scope"`
}

// FulfillmentRecipient names who the order is for
type FulfillmentRecipient struct {
	DisplayName string `json:"display_name,omitempty"`
}

// FulfillmentShipmentDetails carries the shipment recipient
type FulfillmentShipmentDetails struct {
	Recipient *FulfillmentRecipient `json:"recipient,omitempty"`
}

// OrderFulfillment is required for orders to show up in the seller dashboard
type OrderFulfillment struct {
	Type            string                      `json:"type"`
	State           string                      `json:"state"`
	ShipmentDetails *FulfillmentShipmentDetails `json:"shipment_details,omitempty"`
}

// Order is both the request payload and the provider's response object
type Order struct {
	ID                 string                  `json:"id,omitempty"`
	LocationID         string                  `json:"location_id"`
	ReferenceID        string                  `json:"reference_id,omitempty"`
	CustomerID         string                  `json:"customer_id,omitempty"`
	LineItems          []OrderLineItem         `json:"line_items,omitempty"`
	Taxes              []OrderLineItemTax      `json:"taxes,omitempty"`
	Discounts          []OrderLineItemDiscount `json:"discounts,omitempty"`
	Fulfillments       []OrderFulfillment      `json:"fulfillments,omitempty"`
	State              string                  `json:"state,omitempty"`
	Version            int64                   `json:"version,omitempty"`
	TotalMoney         *Money                  `json:"total_money,omitempty"`
	TotalTaxMoney      *Money                  `json:"total_tax_money,omitempty"`
	TotalDiscountMoney *Money                  `json:"total_discount_money,omitempty"`
}

// CalculateOrderRequest asks the provider to price an order without persisting it
type CalculateOrderRequest struct {
	Order *Order `json:"order"`
}

// CreateOrderRequest persists an order
type CreateOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Order          *Order `json:"order"`
}

// UpdateOrderRequest updates (or cancels) an existing order
type UpdateOrderRequest struct {
	IdempotencyKey string   `json:"idempotency_key"`
	Order          *Order   `json:"order"`
	FieldsToClear  []string `json:"fields_to_clear,omitempty"`
}

// CreatePaymentRequest charges a card source, optionally against an order
type CreatePaymentRequest struct {
	SourceID          string `json:"source_id"`
	IdempotencyKey    string `json:"idempotency_key"`
	AmountMoney       Money  `json:"amount_money"`
	LocationID        string `json:"location_id"`
	ReferenceID       string `json:"reference_id,omitempty"`
	Note              string `json:"note,omitempty"`
	OrderID           string `json:"order_id,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`
	CustomerID        string `json:"customer_id,omitempty"`
	Autocomplete      *bool  `json:"autocomplete,omitempty"`
}

// CompletePaymentRequest completes an APPROVED payment
type CompletePaymentRequest struct {
	VersionToken string `json:"version_token,omitempty"`
}

// Payment is the provider's payment object
type Payment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	OrderID      string `json:"order_id,omitempty"`
	LocationID   string `json:"location_id,omitempty"`
	ReferenceID  string `json:"reference_id,omitempty"`
	ReceiptURL   string `json:"receipt_url,omitempty"`
	VersionToken string `json:"version_token,omitempty"`
	AmountMoney  *Money `json:"amount_money,omitempty"`
	TotalMoney   *Money `json:"total_money,omitempty"`
}

// Location is a seller location
type Location struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Currency     string   `json:"currency"`
	Country      string   `json:"country"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// CreateCustomerRequest creates a customer profile
type CreateCustomerRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	GivenName      string `json:"given_name,omitempty"`
	FamilyName     string `json:"family_name,omitempty"`
	EmailAddress   string `json:"email_address,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Customer is a customer profile
type Customer struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name,omitempty"`
	FamilyName   string `json:"family_name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	ReferenceID  string `json:"reference_id,omitempty"`
}
