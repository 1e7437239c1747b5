package order

import (
	"context"
	"testing"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
	"github.com/kevin07696/square-checkout/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAdjustment(t *testing.T) {
	tests := []struct {
		name       string
		calculated int64
		want       domain.Adjustment
	}{
		{name: "exact", calculated: 1000, want: domain.Adjustment{Offset: 0, Action: domain.AdjustmentNone}},
		{name: "too high", calculated: 1005, want: domain.Adjustment{Offset: 5, Action: domain.AdjustmentDiscount}},
		{name: "too low", calculated: 995, want: domain.Adjustment{Offset: -5, Action: domain.AdjustmentLineItem}},
		{name: "at ceiling high", calculated: 1010, want: domain.Adjustment{Offset: 10, Action: domain.AdjustmentDiscount}},
		{name: "at ceiling low", calculated: 990, want: domain.Adjustment{Offset: -10, Action: domain.AdjustmentLineItem}},
		{name: "above ceiling", calculated: 1011, want: domain.Adjustment{Offset: 11, Action: domain.AdjustmentSkipped}},
		{name: "real discrepancy", calculated: 1050, want: domain.Adjustment{Offset: 50, Action: domain.AdjustmentSkipped}},
		{name: "far below", calculated: 900, want: domain.Adjustment{Offset: -100, Action: domain.AdjustmentSkipped}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanAdjustment(tt.calculated, 1000, domain.DefaultAdjustmentCeiling))
		})
	}
}

func newReconcileItems(t *testing.T) *Items {
	t.Helper()
	items := NewItems("USD", 2)
	require.NoError(t, items.AddItem("Ticket", 1, dec("10"), true))
	return items
}

func TestReconciler_DiscountWhenCalculatedTooHigh(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(1005, "USD")
	logger := mocks.NewMockLogger()
	items := newReconcileItems(t)

	adjustment, err := NewReconciler(gateway, logger, 0).Reconcile(context.Background(), items, models.Order{LocationID: "L1"}, 1000)
	require.NoError(t, err)

	assert.Equal(t, domain.AdjustmentDiscount, adjustment.Action)
	assert.Equal(t, int64(5), adjustment.Offset)
	require.Len(t, items.Discounts(), 1)
	d := items.Discounts()[0]
	assert.Equal(t, AdjustmentName, d.Name)
	assert.Equal(t, models.ScopeOrder, d.Scope)
	assert.Equal(t, models.DiscountTypeFixedAmount, d.Type)
	assert.Equal(t, int64(5), d.AmountMoney.Amount)
	assert.Len(t, items.LineItems(), 1)
	assert.True(t, logger.HasInfo("order total adjusted"))
}

func TestReconciler_LineItemWhenCalculatedTooLow(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(995, "USD")
	items := newReconcileItems(t)

	adjustment, err := NewReconciler(gateway, mocks.NewMockLogger(), 0).Reconcile(context.Background(), items, models.Order{}, 1000)
	require.NoError(t, err)

	assert.Equal(t, domain.AdjustmentLineItem, adjustment.Action)
	assert.Equal(t, int64(-5), adjustment.Offset)
	lines := items.LineItems()
	require.Len(t, lines, 2)
	assert.Equal(t, AdjustmentName, lines[1].Name)
	assert.Equal(t, "1", lines[1].Quantity)
	assert.Equal(t, int64(5), lines[1].BasePriceMoney.Amount)
	assert.Empty(t, lines[1].AppliedTaxes)
	assert.Empty(t, items.Discounts())
}

func TestReconciler_SkipsAboveCeiling(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(1050, "USD")
	logger := mocks.NewMockLogger()
	items := newReconcileItems(t)

	adjustment, err := NewReconciler(gateway, logger, 0).Reconcile(context.Background(), items, models.Order{}, 1000)
	require.NoError(t, err)

	assert.Equal(t, domain.AdjustmentSkipped, adjustment.Action)
	assert.Equal(t, int64(50), adjustment.Offset)
	assert.Len(t, items.LineItems(), 1, "order must be left unmodified")
	assert.Empty(t, items.Discounts())
	assert.True(t, logger.HasWarn("above adjustment ceiling"))
}

func TestReconciler_CustomCeiling(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(1050, "USD")
	items := newReconcileItems(t)

	adjustment, err := NewReconciler(gateway, mocks.NewMockLogger(), 100).Reconcile(context.Background(), items, models.Order{}, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.AdjustmentDiscount, adjustment.Action)
}

func TestReconciler_NoChangeWhenTotalsMatch(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(1000, "USD")
	items := newReconcileItems(t)

	adjustment, err := NewReconciler(gateway, mocks.NewMockLogger(), 0).Reconcile(context.Background(), items, models.Order{}, 1000)
	require.NoError(t, err)

	assert.Equal(t, domain.AdjustmentNone, adjustment.Action)
	assert.False(t, adjustment.Applied())
	assert.Len(t, items.LineItems(), 1)
}

func TestReconciler_CalculateFailureDoesNotAbort(t *testing.T) {
	tests := []struct {
		name     string
		response *models.Order
		err      error
		warning  string
	}{
		{
			name:    "transport error",
			err:     pkgerrors.NewTransportError(pkgerrors.CodeTransport, "connection refused", nil),
			warning: "order calculation failed",
		},
		{
			name:     "missing total",
			response: &models.Order{ID: "calc"},
			warning:  "returned no total",
		},
		{
			name:    "nil order",
			warning: "returned no total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := mocks.NewMockSquareGateway()
			gateway.SetCalculateResponse(tt.response, tt.err)
			logger := mocks.NewMockLogger()
			items := newReconcileItems(t)

			adjustment, err := NewReconciler(gateway, logger, 0).Reconcile(context.Background(), items, models.Order{}, 1000)
			require.NoError(t, err)

			assert.Equal(t, domain.AdjustmentUnavailable, adjustment.Action)
			assert.Len(t, items.LineItems(), 1)
			assert.True(t, logger.HasWarn(tt.warning))
		})
	}
}

func TestReconciler_SendsDraftWithoutSealing(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	gateway.SetCalculatedTotal(1000, "USD")
	items := newReconcileItems(t)
	header := models.Order{LocationID: "L1", ReferenceID: "TEST-order-9"}

	_, err := NewReconciler(gateway, mocks.NewMockLogger(), 0).Reconcile(context.Background(), items, header, 1000)
	require.NoError(t, err)

	require.Equal(t, 1, gateway.CalculateCalls)
	sent := gateway.LastCalculateReq.Order
	assert.Equal(t, "L1", sent.LocationID)
	assert.Equal(t, "TEST-order-9", sent.ReferenceID)
	assert.Len(t, sent.LineItems, 1)
	assert.False(t, items.Sealed())
}

func TestReconciler_SealedItems(t *testing.T) {
	gateway := mocks.NewMockSquareGateway()
	items := newReconcileItems(t)
	_, err := items.Finalize(models.Order{})
	require.NoError(t, err)

	gateway.SetCalculatedTotal(1005, "USD")
	_, err = NewReconciler(gateway, mocks.NewMockLogger(), 0).Reconcile(context.Background(), items, models.Order{}, 1000)
	assert.ErrorIs(t, err, domain.ErrOrderSealed)
}
