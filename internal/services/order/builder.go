package order

import (
	"fmt"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Names shown on the seller dashboard
const (
	PreviousPaymentName   = "a previously received payment"
	ResidualName          = "Other (promotion/surcharge)"
	AdjustmentName        = "Total calculation adjustment"
	unnamedPromotionName  = "Promotion"
	unnamedLineItemName   = "Item"
	unnamedTaxLineItemFmt = "Tax %s%%"
)

// BuildItems translates a transaction into an order accumulator, in this order:
//  1. previously received payment as a LINE_ITEM discount (partial payments only)
//  2. promotions as LINE_ITEM discounts
//  3. purchased items, referencing the discounts and taxes known so far
//  4. taxes: ADDITIVE line-item taxes when promotions affect tax and the payment is not partial,
//     otherwise flat line items for the tax totals
//  5. residual between the transaction total and the itemization
//  6. shipment fulfillment for the registrant
//
// Additive taxes are registered before step 3 so taxable items can reference them.
func BuildItems(txn domain.Transaction, paymentAmount decimal.Decimal, promotionsAffectTax bool, places int32) (*Items, error) {
	items := NewItems(txn.Currency, places)

	if txn.IsPartialPayment(paymentAmount) {
		if _, err := items.AddDiscount(PreviousPaymentName, txn.Paid, models.ScopeLineItem); err != nil {
			return nil, fmt.Errorf("add previous payment discount: %w", err)
		}
		if err := items.MarkPartialPayment(); err != nil {
			return nil, err
		}
	}

	for _, li := range txn.Items {
		if !li.IsPromotion() {
			continue
		}
		amount := li.PromotionAmount(promotionsAffectTax)
		if amount.IsZero() {
			continue
		}
		if _, err := items.AddDiscount(nameOr(li.Name, unnamedPromotionName), amount, models.ScopeLineItem); err != nil {
			return nil, fmt.Errorf("add promotion %d: %w", li.ID, err)
		}
		if err := items.Accumulate(amount.Neg()); err != nil {
			return nil, err
		}
	}

	additiveTaxes := promotionsAffectTax && !items.PartialPayment()
	if additiveTaxes {
		for _, tax := range txn.Taxes {
			if _, err := items.AddTax(taxName(tax), tax.Percent); err != nil {
				return nil, fmt.Errorf("add tax %d: %w", tax.ID, err)
			}
		}
	}

	for _, li := range txn.Items {
		if li.IsPromotion() || li.Kind == domain.LineItemKindTax {
			continue
		}
		// Negative surcharges and zero-quantity rows fall through to the residual
		if li.Quantity <= 0 || li.UnitPrice.IsNegative() {
			continue
		}
		if err := items.AddItem(nameOr(li.Name, unnamedLineItemName), li.Quantity, li.UnitPrice, li.IsTaxable); err != nil {
			return nil, fmt.Errorf("add line item %d: %w", li.ID, err)
		}
	}

	if !additiveTaxes {
		for _, tax := range txn.Taxes {
			if tax.Total.IsZero() {
				continue
			}
			if err := items.AddFlatItem(taxName(tax), tax.Total); err != nil {
				return nil, fmt.Errorf("add tax line item %d: %w", tax.ID, err)
			}
		}
	}

	residual := Residual(txn, items.RunningTotal(), places)
	switch {
	case residual.IsPositive():
		if err := items.AddFlatItem(ResidualName, residual); err != nil {
			return nil, fmt.Errorf("add residual line item: %w", err)
		}
	case residual.IsNegative():
		if _, err := items.AddDiscount(ResidualName, residual, models.ScopeOrder); err != nil {
			return nil, fmt.Errorf("add residual discount: %w", err)
		}
	}

	if err := items.AddFulfillment(txn.DisplayName()); err != nil {
		return nil, err
	}

	return items, nil
}

// Residual returns total - itemized - taxes, rounded to the currency precision
func Residual(txn domain.Transaction, itemized decimal.Decimal, places int32) decimal.Decimal {
	return txn.Total.Sub(itemized).Sub(txn.TaxTotal()).Round(places)
}

func taxName(tax domain.TaxLineItem) string {
	if tax.Name != "" {
		return tax.Name
	}
	return fmt.Sprintf(unnamedTaxLineItemFmt, tax.Percent.String())
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
