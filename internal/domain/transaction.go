package domain

import (
	"github.com/shopspring/decimal"
)

// LineItemKind tags a purchased line item
type LineItemKind string

const (
	LineItemKindItem      LineItemKind = "item"
	LineItemKindTax       LineItemKind = "tax"
	LineItemKindPromotion LineItemKind = "promotion"
)

// LineItem is one purchased entry of a transaction (ticket, promotion, surcharge...)
type LineItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	PretaxTotal decimal.Decimal `json:"pretax_total"`
	IsTaxable   bool            `json:"is_taxable"`
	Kind        LineItemKind    `json:"kind"`
}

// IsPromotion returns true if the line item is a promotion (always a discount)
func (li LineItem) IsPromotion() bool {
	return li.Kind == LineItemKindPromotion
}

// Subtotal returns unit price × quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PromotionAmount returns the amount a promotion takes off the order
// Promotions that do not affect tax are measured before tax
func (li LineItem) PromotionAmount(promotionsAffectTax bool) decimal.Decimal {
	if !promotionsAffectTax && !li.PretaxTotal.IsZero() {
		return li.PretaxTotal.Abs()
	}
	return li.Total.Abs()
}

// TaxLineItem is one tax applied to a transaction
type TaxLineItem struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
	Total   decimal.Decimal `json:"total"`
}

// Transaction is a read-only snapshot of the registration transaction being charged
// Owned by the surrounding application
type Transaction struct {
	ID                 int64           `json:"id"`
	Total              decimal.Decimal `json:"total"`
	Paid               decimal.Decimal `json:"paid"`
	Currency           string          `json:"currency"`
	Items              []LineItem      `json:"items"`
	Taxes              []TaxLineItem   `json:"taxes"`
	RegistrantName     string          `json:"registrant_name"`
	RegistrantEmail    string          `json:"registrant_email,omitempty"`
	HasApprovedPayment bool            `json:"has_approved_payment,omitempty"`
}

// TaxTotal returns the sum of all tax line item totals
func (t *Transaction) TaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, tax := range t.Taxes {
		total = total.Add(tax.Total)
	}
	return total
}

// Remaining returns the balance still owed
func (t *Transaction) Remaining() decimal.Decimal {
	return t.Total.Sub(t.Paid)
}

// IsFree returns true if there is nothing to charge
func (t *Transaction) IsFree() bool {
	return !t.Total.IsPositive()
}

// IsPartialPayment returns true if a payment of amount leaves an earlier payment to account for
func (t *Transaction) IsPartialPayment(amount decimal.Decimal) bool {
	return !amount.Equal(t.Total) && t.Paid.IsPositive()
}

// CanCancelOrder returns true if the transaction was abandoned:
// not free, nothing paid, and no approved payment on record
func (t *Transaction) CanCancelOrder() bool {
	return !t.IsFree() && t.Paid.IsZero() && !t.HasApprovedPayment
}

// DisplayName returns the registrant name used on fulfillments
func (t *Transaction) DisplayName() string {
	if t.RegistrantName == "" {
		return "Unknown"
	}
	return t.RegistrantName
}
