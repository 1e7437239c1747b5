package order

import (
	"errors"
	"testing"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestItems_ReferenceListsStayInLockStep verifies one uid per discount/tax after any add sequence
func TestItems_ReferenceListsStayInLockStep(t *testing.T) {
	sequences := [][]string{
		{},
		{"discount"},
		{"tax"},
		{"discount", "tax", "discount"},
		{"tax", "tax", "item", "discount", "tax", "item"},
		{"item", "flat", "discount", "discount", "discount", "tax"},
	}

	for _, seq := range sequences {
		items := NewItems("USD", 2)
		for _, op := range seq {
			var err error
			switch op {
			case "discount":
				_, err = items.AddDiscount("promo", dec("1.00"), models.ScopeLineItem)
			case "tax":
				_, err = items.AddTax("state", dec("6.5"))
			case "item":
				err = items.AddItem("ticket", 1, dec("10"), true)
			case "flat":
				err = items.AddFlatItem("fee", dec("2"))
			}
			require.NoError(t, err)
		}

		assert.Len(t, items.DiscountIDs(), len(items.Discounts()), "sequence %v", seq)
		assert.Len(t, items.TaxIDs(), len(items.Taxes()), "sequence %v", seq)
		for i, d := range items.Discounts() {
			assert.Equal(t, d.UID, items.DiscountIDs()[i])
		}
		for i, tx := range items.Taxes() {
			assert.Equal(t, tx.UID, items.TaxIDs()[i])
		}
	}
}

func TestItems_AddItemSnapshotsCurrentReferences(t *testing.T) {
	items := NewItems("USD", 2)

	require.NoError(t, items.AddItem("early", 1, dec("5"), true))
	_, err := items.AddDiscount("promo", dec("1"), models.ScopeLineItem)
	require.NoError(t, err)
	_, err = items.AddTax("state", dec("8"))
	require.NoError(t, err)
	require.NoError(t, items.AddItem("taxable", 2, dec("10"), true))
	require.NoError(t, items.AddItem("exempt", 1, dec("3"), false))

	lines := items.LineItems()
	require.Len(t, lines, 3)

	assert.Empty(t, lines[0].AppliedDiscounts)
	assert.Empty(t, lines[0].AppliedTaxes)

	assert.Equal(t, []models.AppliedDiscount{{DiscountUID: "discount-1"}}, lines[1].AppliedDiscounts)
	assert.Equal(t, []models.AppliedTax{{TaxUID: "tax-1"}}, lines[1].AppliedTaxes)
	assert.Equal(t, "2", lines[1].Quantity)
	assert.Equal(t, int64(1000), lines[1].BasePriceMoney.Amount)

	assert.Equal(t, []models.AppliedDiscount{{DiscountUID: "discount-1"}}, lines[2].AppliedDiscounts)
	assert.Empty(t, lines[2].AppliedTaxes, "non-taxable items carry no tax references")

	assert.True(t, items.RunningTotal().Equal(dec("28")))
	assert.Equal(t, 3, items.ItemCount())
}

func TestItems_AmountsAreNonNegativeMinorUnits(t *testing.T) {
	items := NewItems("USD", 2)

	_, err := items.AddDiscount("credit", dec("-12.345"), models.ScopeOrder)
	require.NoError(t, err)
	require.NoError(t, items.AddFlatItem("refund", dec("-3.10")))

	assert.Equal(t, int64(1235), items.Discounts()[0].AmountMoney.Amount)
	assert.Equal(t, "USD", items.Discounts()[0].AmountMoney.Currency)
	assert.Equal(t, int64(310), items.LineItems()[0].BasePriceMoney.Amount)
}

func TestItems_AddItemRejectsInvalidInput(t *testing.T) {
	items := NewItems("USD", 2)

	err := items.AddItem("bad", 0, dec("1"), false)
	assert.True(t, domain.IsValidationError(err))

	err = items.AddItem("bad", 1, dec("-1"), false)
	assert.True(t, errors.Is(err, domain.ErrValidationAmountInvalid))

	assert.Empty(t, items.LineItems())
	assert.Equal(t, 0, items.ItemCount())
}

func TestItems_FinalizeSeals(t *testing.T) {
	items := NewItems("USD", 2)
	require.NoError(t, items.AddItem("ticket", 1, dec("10"), false))

	order, err := items.Finalize(models.Order{LocationID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, "L1", order.LocationID)
	assert.Len(t, order.LineItems, 1)
	assert.True(t, items.Sealed())

	assert.ErrorIs(t, items.AddItem("late", 1, dec("1"), false), domain.ErrOrderSealed)
	assert.ErrorIs(t, items.AddFlatItem("late", dec("1")), domain.ErrOrderSealed)
	assert.ErrorIs(t, items.AddFulfillment("late"), domain.ErrOrderSealed)
	assert.ErrorIs(t, items.Accumulate(dec("1")), domain.ErrOrderSealed)
	_, err = items.AddDiscount("late", dec("1"), models.ScopeOrder)
	assert.ErrorIs(t, err, domain.ErrOrderSealed)
	_, err = items.AddTax("late", dec("1"))
	assert.ErrorIs(t, err, domain.ErrOrderSealed)

	_, err = items.Finalize(models.Order{})
	assert.ErrorIs(t, err, domain.ErrOrderSealed)
}

func TestItems_DraftIsIndependent(t *testing.T) {
	items := NewItems("USD", 2)
	_, err := items.AddDiscount("promo", dec("1"), models.ScopeLineItem)
	require.NoError(t, err)
	require.NoError(t, items.AddItem("ticket", 1, dec("10"), false))
	require.NoError(t, items.AddFulfillment("Ada"))

	draft, err := items.Draft(models.Order{LocationID: "L1"})
	require.NoError(t, err)
	assert.False(t, items.Sealed(), "draft must not seal")

	draft.LineItems[0].BasePriceMoney.Amount = 1
	draft.LineItems[0].AppliedDiscounts[0].DiscountUID = "tampered"
	draft.Discounts[0].AmountMoney.Amount = 1
	draft.Fulfillments[0].ShipmentDetails.Recipient.DisplayName = "tampered"

	assert.Equal(t, int64(1000), items.LineItems()[0].BasePriceMoney.Amount)
	assert.Equal(t, "discount-1", items.LineItems()[0].AppliedDiscounts[0].DiscountUID)
	assert.Equal(t, int64(100), items.Discounts()[0].AmountMoney.Amount)

	again, err := items.Draft(models.Order{})
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Fulfillments[0].ShipmentDetails.Recipient.DisplayName)

	// Items can still grow after a draft
	require.NoError(t, items.AddFlatItem("adjustment", dec("0.05")))
	assert.Len(t, items.LineItems(), 2)
}

func TestItems_InvariantViolationFailsFast(t *testing.T) {
	items := NewItems("USD", 2)
	_, err := items.AddDiscount("promo", dec("1"), models.ScopeLineItem)
	require.NoError(t, err)

	// Corrupt the reference list directly
	items.discountIDs = items.discountIDs[:0]

	_, err = items.Draft(models.Order{})
	assert.ErrorIs(t, err, domain.ErrBuilderInvariant)

	err = items.AddItem("ticket", 1, dec("1"), false)
	assert.ErrorIs(t, err, domain.ErrBuilderInvariant)

	_, err = items.Finalize(models.Order{})
	assert.ErrorIs(t, err, domain.ErrBuilderInvariant)
	assert.False(t, items.Sealed())
}

func TestItems_ZeroDecimalCurrency(t *testing.T) {
	items := NewItems("JPY", 0)
	require.NoError(t, items.AddItem("ticket", 3, dec("1500"), false))

	line := items.LineItems()[0]
	assert.Equal(t, int64(1500), line.BasePriceMoney.Amount)
	assert.Equal(t, "JPY", line.BasePriceMoney.Currency)
}
