package order

import (
	"fmt"
	"strconv"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// Items accumulates the line items, discounts, taxes and fulfillments of one order build
// Owned by a single payment attempt; not safe for concurrent use
type Items struct {
	currency string
	places   int32

	lineItems    []models.OrderLineItem
	discounts    []models.OrderLineItemDiscount
	taxes        []models.OrderLineItemTax
	fulfillments []models.OrderFulfillment

	// discountIDs/taxIDs hold one uid per discount/tax, in the same order
	discountIDs []string
	taxIDs      []string

	runningTotal   decimal.Decimal
	itemCount      int
	partialPayment bool
	sealed         bool
}

// NewItems creates an empty accumulator for a currency with the given minor-unit precision
func NewItems(currency string, places int32) *Items {
	return &Items{
		currency:     currency,
		places:       places,
		runningTotal: decimal.Zero,
	}
}

// AddDiscount adds a FIXED_AMOUNT discount for |amount| and returns its uid
// LINE_ITEM discounts apply to every item added afterwards
func (it *Items) AddDiscount(name string, amount decimal.Decimal, scope string) (string, error) {
	if err := it.checkWritable(); err != nil {
		return "", err
	}

	uid := "discount-" + strconv.Itoa(len(it.discounts)+1)
	it.discounts = append(it.discounts, models.OrderLineItemDiscount{
		UID:         uid,
		Name:        name,
		Type:        models.DiscountTypeFixedAmount,
		AmountMoney: it.money(money.Abs(amount, it.places)),
		Scope:       scope,
	})
	it.discountIDs = append(it.discountIDs, uid)

	return uid, it.checkInvariant()
}

// AddTax adds an ADDITIVE line-item tax and returns its uid
// Taxable items added afterwards reference it
func (it *Items) AddTax(name string, percent decimal.Decimal) (string, error) {
	if err := it.checkWritable(); err != nil {
		return "", err
	}

	uid := "tax-" + strconv.Itoa(len(it.taxes)+1)
	it.taxes = append(it.taxes, models.OrderLineItemTax{
		UID:        uid,
		Name:       name,
		Type:       models.TaxTypeAdditive,
		Percentage: percent.String(),
		Scope:      models.ScopeLineItem,
	})
	it.taxIDs = append(it.taxIDs, uid)

	return uid, it.checkInvariant()
}

// AddItem adds a priced line item referencing the discounts and (if taxable) taxes added so far
// The running total grows by unitPrice × quantity
func (it *Items) AddItem(name string, quantity int, unitPrice decimal.Decimal, taxable bool) error {
	if err := it.checkWritable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return domain.ErrValidationFailed.WithDetail("quantity", quantity)
	}
	if unitPrice.IsNegative() {
		return domain.ErrValidationAmountInvalid.WithDetail("unit_price", unitPrice.String())
	}
	if err := it.checkInvariant(); err != nil {
		return err
	}

	item := models.OrderLineItem{
		UID:            "item-" + strconv.Itoa(len(it.lineItems)+1),
		Name:           name,
		Quantity:       strconv.Itoa(quantity),
		BasePriceMoney: it.money(money.ToMinorUnits(unitPrice, it.places)),
	}
	for _, uid := range it.discountIDs {
		item.AppliedDiscounts = append(item.AppliedDiscounts, models.AppliedDiscount{DiscountUID: uid})
	}
	if taxable {
		for _, uid := range it.taxIDs {
			item.AppliedTaxes = append(item.AppliedTaxes, models.AppliedTax{TaxUID: uid})
		}
	}

	it.lineItems = append(it.lineItems, item)
	it.runningTotal = it.runningTotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
	it.itemCount++
	return nil
}

// AddFlatItem adds a quantity-1 line item for |amount| with no discounts or taxes
// Flat items are outside the itemized running total
func (it *Items) AddFlatItem(name string, amount decimal.Decimal) error {
	if err := it.checkWritable(); err != nil {
		return err
	}

	it.lineItems = append(it.lineItems, models.OrderLineItem{
		UID:            "item-" + strconv.Itoa(len(it.lineItems)+1),
		Name:           name,
		Quantity:       "1",
		BasePriceMoney: it.money(money.Abs(amount, it.places)),
	})
	return nil
}

// AddFulfillment attaches a proposed shipment for the recipient
func (it *Items) AddFulfillment(displayName string) error {
	if err := it.checkWritable(); err != nil {
		return err
	}

	it.fulfillments = append(it.fulfillments, models.OrderFulfillment{
		Type:  models.FulfillmentTypeShipment,
		State: models.FulfillmentStateProposed,
		ShipmentDetails: &models.FulfillmentShipmentDetails{
			Recipient: &models.FulfillmentRecipient{DisplayName: displayName},
		},
	})
	return nil
}

// Accumulate adds a signed amount to the running total without emitting a payload entry
func (it *Items) Accumulate(amount decimal.Decimal) error {
	if err := it.checkWritable(); err != nil {
		return err
	}
	it.runningTotal = it.runningTotal.Add(amount)
	return nil
}

// MarkPartialPayment flags the order as paying only the balance of the transaction
func (it *Items) MarkPartialPayment() error {
	if err := it.checkWritable(); err != nil {
		return err
	}
	it.partialPayment = true
	return nil
}

// RunningTotal returns the itemized total (items minus promotions)
func (it *Items) RunningTotal() decimal.Decimal { return it.runningTotal }

// ItemCount returns the number of priced items added with AddItem
func (it *Items) ItemCount() int { return it.itemCount }

// PartialPayment returns true if a previously received payment was discounted
func (it *Items) PartialPayment() bool { return it.partialPayment }

// Currency returns the order currency
func (it *Items) Currency() string { return it.currency }

// Places returns the currency's minor-unit precision
func (it *Items) Places() int32 { return it.places }

// Sealed returns true after Finalize
func (it *Items) Sealed() bool { return it.sealed }

// LineItems returns a copy of the line items
func (it *Items) LineItems() []models.OrderLineItem {
	return append([]models.OrderLineItem(nil), it.lineItems...)
}

// Discounts returns a copy of the discounts
func (it *Items) Discounts() []models.OrderLineItemDiscount {
	return append([]models.OrderLineItemDiscount(nil), it.discounts...)
}

// Taxes returns a copy of the taxes
func (it *Items) Taxes() []models.OrderLineItemTax {
	return append([]models.OrderLineItemTax(nil), it.taxes...)
}

// DiscountIDs returns a copy of the discount references
func (it *Items) DiscountIDs() []string { return append([]string(nil), it.discountIDs...) }

// TaxIDs returns a copy of the tax references
func (it *Items) TaxIDs() []string { return append([]string(nil), it.taxIDs...) }

// Draft returns the order payload for header without sealing the accumulator
func (it *Items) Draft(header models.Order) (*models.Order, error) {
	if err := it.checkInvariant(); err != nil {
		return nil, err
	}

	order := header
	order.LineItems = cloneLineItems(it.lineItems)
	order.Discounts = cloneDiscounts(it.discounts)
	order.Taxes = append([]models.OrderLineItemTax(nil), it.taxes...)
	order.Fulfillments = cloneFulfillments(it.fulfillments)
	return &order, nil
}

// Finalize seals the accumulator and returns an independent order payload
// Every later Add call fails with domain.ErrOrderSealed
func (it *Items) Finalize(header models.Order) (*models.Order, error) {
	if it.sealed {
		return nil, domain.ErrOrderSealed
	}
	order, err := it.Draft(header)
	if err != nil {
		return nil, err
	}
	it.sealed = true
	return order, nil
}

func (it *Items) checkWritable() error {
	if it.sealed {
		return domain.ErrOrderSealed
	}
	return nil
}

func (it *Items) checkInvariant() error {
	if len(it.discountIDs) != len(it.discounts) || len(it.taxIDs) != len(it.taxes) {
		return domain.ErrBuilderInvariant.
			WithDetail("discounts", fmt.Sprintf("%d/%d", len(it.discountIDs), len(it.discounts))).
			WithDetail("taxes", fmt.Sprintf("%d/%d", len(it.taxIDs), len(it.taxes)))
	}
	for i, d := range it.discounts {
		if it.discountIDs[i] != d.UID {
			return domain.ErrBuilderInvariant.WithDetail("discount_uid", d.UID)
		}
	}
	for i, t := range it.taxes {
		if it.taxIDs[i] != t.UID {
			return domain.ErrBuilderInvariant.WithDetail("tax_uid", t.UID)
		}
	}
	return nil
}

func (it *Items) money(amount int64) *models.Money {
	return &models.Money{Amount: amount, Currency: it.currency}
}

func cloneLineItems(src []models.OrderLineItem) []models.OrderLineItem {
	if src == nil {
		return nil
	}
	out := make([]models.OrderLineItem, len(src))
	for i, li := range src {
		li.AppliedDiscounts = append([]models.AppliedDiscount(nil), li.AppliedDiscounts...)
		li.AppliedTaxes = append([]models.AppliedTax(nil), li.AppliedTaxes...)
		if li.BasePriceMoney != nil {
			m := *li.BasePriceMoney
			li.BasePriceMoney = &m
		}
		out[i] = li
	}
	return out
}

func cloneDiscounts(src []models.OrderLineItemDiscount) []models.OrderLineItemDiscount {
	if src == nil {
		return nil
	}
	out := make([]models.OrderLineItemDiscount, len(src))
	for i, d := range src {
		if d.AmountMoney != nil {
			m := *d.AmountMoney
			d.AmountMoney = &m
		}
		out[i] = d
	}
	return out
}

func cloneFulfillments(src []models.OrderFulfillment) []models.OrderFulfillment {
	if src == nil {
		return nil
	}
	out := make([]models.OrderFulfillment, len(src))
	for i, f := range src {
		if f.ShipmentDetails != nil {
			details := *f.ShipmentDetails
			if details.Recipient != nil {
				recipient := *details.Recipient
				details.Recipient = &recipient
			}
			f.ShipmentDetails = &details
		}
		out[i] = f
	}
	return out
}
