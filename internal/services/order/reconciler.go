package order

import (
	"context"
	"fmt"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
	"github.com/kevin07696/square-checkout/pkg/money"
)

// Reconciler aligns Square's calculated order total with the expected charge
// Square rounds percentage taxes on its side, so small offsets are patched before the order is created
type Reconciler struct {
	calculator ports.OrderCalculator
	logger     ports.Logger
	ceiling    int64
}

// NewReconciler creates a reconciler; ceiling <= 0 uses domain.DefaultAdjustmentCeiling
func NewReconciler(calculator ports.OrderCalculator, logger ports.Logger, ceiling int64) *Reconciler {
	if ceiling <= 0 {
		ceiling = domain.DefaultAdjustmentCeiling
	}
	return &Reconciler{
		calculator: calculator,
		logger:     logger,
		ceiling:    ceiling,
	}
}

// PlanAdjustment decides how to correct calculated towards expected (both in minor units)
//
//	offset == 0            -> none
//	0 < |offset| <= ceiling -> line item (offset < 0) or order discount (offset > 0)
//	|offset| > ceiling     -> skipped
func PlanAdjustment(calculated, expected, ceiling int64) domain.Adjustment {
	offset := calculated - expected
	abs := offset
	if abs < 0 {
		abs = -abs
	}

	switch {
	case offset == 0:
		return domain.Adjustment{Offset: 0, Action: domain.AdjustmentNone}
	case abs > ceiling:
		return domain.Adjustment{Offset: offset, Action: domain.AdjustmentSkipped}
	case offset < 0:
		return domain.Adjustment{Offset: offset, Action: domain.AdjustmentLineItem}
	default:
		return domain.Adjustment{Offset: offset, Action: domain.AdjustmentDiscount}
	}
}

// Reconcile prices the draft order and patches items so Square's total equals expected
// A failed calculate call is logged and reported as AdjustmentUnavailable; the order still proceeds.
// Errors are returned only when items cannot be drafted or patched.
func (r *Reconciler) Reconcile(ctx context.Context, items *Items, header models.Order, expected int64) (domain.Adjustment, error) {
	draft, err := items.Draft(header)
	if err != nil {
		return domain.Adjustment{}, fmt.Errorf("draft order: %w", err)
	}

	calculated, err := r.calculator.CalculateOrder(ctx, &models.CalculateOrderRequest{Order: draft})
	if err != nil {
		r.logger.Warn("order calculation failed, submitting order unadjusted",
			ports.String("reference_id", header.ReferenceID),
			ports.Err(err))
		return domain.Adjustment{Action: domain.AdjustmentUnavailable}, nil
	}
	if calculated == nil || calculated.TotalMoney == nil {
		r.logger.Warn("order calculation returned no total, submitting order unadjusted",
			ports.String("reference_id", header.ReferenceID))
		return domain.Adjustment{Action: domain.AdjustmentUnavailable}, nil
	}

	adjustment := PlanAdjustment(calculated.TotalMoney.Amount, expected, r.ceiling)
	amount := money.ToDecimal(adjustment.Offset, items.Places())

	switch adjustment.Action {
	case domain.AdjustmentLineItem:
		if err := items.AddFlatItem(AdjustmentName, amount); err != nil {
			return adjustment, fmt.Errorf("add adjustment line item: %w", err)
		}
	case domain.AdjustmentDiscount:
		if _, err := items.AddDiscount(AdjustmentName, amount, models.ScopeOrder); err != nil {
			return adjustment, fmt.Errorf("add adjustment discount: %w", err)
		}
	case domain.AdjustmentSkipped:
		r.logger.Warn("order total offset above adjustment ceiling, submitting order unadjusted",
			ports.String("reference_id", header.ReferenceID),
			ports.Int64("calculated", calculated.TotalMoney.Amount),
			ports.Int64("expected", expected),
			ports.Int64("ceiling", r.ceiling))
		return adjustment, nil
	default:
		return adjustment, nil
	}

	r.logger.Info("order total adjusted",
		ports.String("reference_id", header.ReferenceID),
		ports.String("action", string(adjustment.Action)),
		ports.Int64("offset", adjustment.Offset))

	return adjustment, nil
}
