package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
	"github.com/kevin07696/square-checkout/internal/services/order"
	"github.com/kevin07696/square-checkout/internal/util"
	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
	"github.com/kevin07696/square-checkout/pkg/money"
	"github.com/kevin07696/square-checkout/pkg/observability"
)

// Settings are the merchant options read once at startup
type Settings struct {
	LocationID string
	SiteName   string

	Sandbox             bool
	PromotionsAffectTax bool
	// UseOrders itemizes every payment as a Square order
	UseOrders bool
	// CreateCustomers creates a customer profile when the request carries none
	CreateCustomers bool
	// DelayCapture leaves payments APPROVED; otherwise APPROVED payments are completed
	DelayCapture bool

	AdjustmentCeiling int64
	Precision         money.PrecisionLookup
}

// KeyFunc generates the idempotency key for one attempt
type KeyFunc func(sandbox bool, transactionID int64) util.IdempotencyKey

var _ ports.CheckoutService = (*Service)(nil)

// Service implements ports.CheckoutService over Square
type Service struct {
	gateway    ports.SquareGateway
	orders     ports.OrderRepository
	reconciler *order.Reconciler
	settings   Settings
	logger     ports.Logger
	newKey     KeyFunc
}

// Option customizes a Service
type Option func(*Service)

// WithKeyFunc replaces the idempotency key generator
func WithKeyFunc(fn KeyFunc) Option {
	return func(s *Service) {
		s.newKey = fn
	}
}

// NewService creates a checkout service
// orders may be nil, in which case orders cannot be cancelled later
func NewService(gateway ports.SquareGateway, orders ports.OrderRepository, settings Settings, logger ports.Logger, opts ...Option) *Service {
	if settings.Precision == nil {
		settings.Precision = money.DefaultPrecision
	}

	s := &Service{
		gateway:    gateway,
		orders:     orders,
		reconciler: order.NewReconciler(gateway, logger, settings.AdjustmentCeiling),
		settings:   settings,
		logger:     logger,
		newKey:     util.NewIdempotencyKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessPayment charges one payment attempt against a transaction
func (s *Service) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	start := time.Now()
	txn := req.Transaction

	if err := s.validate(req); err != nil {
		return nil, err
	}

	places := s.settings.Precision.DecimalPlaces(txn.Currency)
	amountMinor := money.ToMinorUnits(req.Amount, places)
	partial := txn.IsPartialPayment(req.Amount)

	key := s.newKey(s.settings.Sandbox, txn.ID)
	transactionID := key.TransactionID()
	builder := order.NewRequestBuilder(key, s.settings.LocationID, s.settings.SiteName, s.settings.Sandbox)

	result := &ports.PaymentResult{
		TransactionID:  transactionID,
		AmountMinor:    amountMinor,
		Currency:       txn.Currency,
		IdempotencyKey: key.String(),
		Adjustment:     domain.Adjustment{Action: domain.AdjustmentNone},
	}

	customerID := req.CustomerID
	if customerID == "" && s.settings.CreateCustomers {
		customerID = s.createCustomer(ctx, txn)
	}

	if s.settings.UseOrders {
		created, adjustment, err := s.createOrder(ctx, builder, txn, req, places, amountMinor, customerID)
		if err != nil {
			observability.RecordPayment("failed", partial, amountMinor, txn.Currency, time.Since(start).Seconds())
			return nil, err
		}
		result.OrderID = created.ID
		result.OrderVersion = created.Version
		result.Adjustment = adjustment
		s.saveOrder(ctx, transactionID, created, key)
	}

	payment, err := s.gateway.CreatePayment(ctx, builder.BuildPayment(order.PaymentParams{
		SourceID:          req.SourceID,
		Currency:          txn.Currency,
		OrderID:           result.OrderID,
		VerificationToken: req.VerificationToken,
		CustomerID:        customerID,
		AmountMinor:       amountMinor,
		TransactionID:     transactionID,
		Autocomplete:      !s.settings.DelayCapture,
	}))
	if err != nil {
		s.logger.Error("create payment failed",
			ports.Int64("transaction_id", transactionID),
			ports.String("order_id", result.OrderID),
			ports.Err(err))
		observability.RecordPayment(failureStatus(err), partial, amountMinor, txn.Currency, time.Since(start).Seconds())
		return nil, gatewayError("create payment", err)
	}

	if payment.Status == models.PaymentStatusApproved && !s.settings.DelayCapture {
		completed, err := s.gateway.CompletePayment(ctx, payment.ID, &models.CompletePaymentRequest{VersionToken: payment.VersionToken})
		if err != nil {
			s.logger.Error("complete payment failed",
				ports.Int64("transaction_id", transactionID),
				ports.String("payment_id", payment.ID),
				ports.Err(err))
			observability.RecordPayment("approved", partial, amountMinor, txn.Currency, time.Since(start).Seconds())
			return nil, gatewayError("complete payment", err)
		}
		payment = completed
	}

	result.PaymentID = payment.ID
	result.Status = payment.Status
	result.ReceiptURL = payment.ReceiptURL

	if s.settings.UseOrders && s.orders != nil {
		if err := s.orders.MarkPaid(ctx, transactionID, payment.ID); err != nil {
			s.logger.Error("failed to record payment against order",
				ports.Int64("transaction_id", transactionID),
				ports.String("payment_id", payment.ID),
				ports.Err(err))
		}
	}

	observability.RecordPayment(strings.ToLower(payment.Status), partial, amountMinor, txn.Currency, time.Since(start).Seconds())

	s.logger.Info("payment processed",
		ports.Int64("transaction_id", transactionID),
		ports.String("order_id", result.OrderID),
		ports.String("payment_id", payment.ID),
		ports.String("status", payment.Status),
		ports.Int64("amount_minor", amountMinor),
		ports.Bool("partial", partial))

	return result, nil
}

func (s *Service) validate(req ports.PaymentRequest) error {
	if s.settings.LocationID == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "location_id")
	}
	if req.SourceID == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "source_id")
	}
	if req.Transaction.Currency == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "currency")
	}
	if !req.Amount.IsPositive() {
		return domain.ErrValidationAmountInvalid.WithDetail("amount", req.Amount.String())
	}
	if req.Amount.GreaterThan(req.Transaction.Total) {
		return domain.ErrValidationAmountInvalid.
			WithDetail("amount", req.Amount.String()).
			WithDetail("total", req.Transaction.Total.String())
	}
	return nil
}

// createOrder builds, reconciles and creates the Square order of an attempt
func (s *Service) createOrder(
	ctx context.Context,
	builder *order.RequestBuilder,
	txn domain.Transaction,
	req ports.PaymentRequest,
	places int32,
	amountMinor int64,
	customerID string,
) (*models.Order, domain.Adjustment, error) {
	items, err := order.BuildItems(txn, req.Amount, s.settings.PromotionsAffectTax, places)
	if err != nil {
		return nil, domain.Adjustment{}, fmt.Errorf("build order items: %w", err)
	}

	transactionID := builder.IdempotencyKey().TransactionID()
	adjustment, err := s.reconciler.Reconcile(ctx, items, builder.Header(transactionID, customerID), amountMinor)
	if err != nil {
		return nil, adjustment, fmt.Errorf("reconcile order total: %w", err)
	}
	observability.RecordReconciliation(string(adjustment.Action), adjustment.Offset)

	createReq, err := builder.BuildOrder(items, transactionID, customerID)
	if err != nil {
		return nil, adjustment, err
	}

	created, err := s.gateway.CreateOrder(ctx, createReq)
	if err != nil {
		s.logger.Error("create order failed",
			ports.Int64("transaction_id", transactionID),
			ports.String("idempotency_key", createReq.IdempotencyKey),
			ports.Err(err))
		return nil, adjustment, gatewayError("create order", err)
	}

	return created, adjustment, nil
}

func (s *Service) saveOrder(ctx context.Context, transactionID int64, created *models.Order, key util.IdempotencyKey) {
	if s.orders == nil {
		return
	}
	record := &domain.OrderRecord{
		TransactionID:  transactionID,
		OrderID:        created.ID,
		OrderVersion:   created.Version,
		IdempotencyKey: key.String(),
		Status:         domain.OrderStatusOpen,
	}
	if err := s.orders.Save(ctx, record); err != nil {
		s.logger.Error("failed to store order, it cannot be cancelled later",
			ports.Int64("transaction_id", transactionID),
			ports.String("order_id", created.ID),
			ports.Err(err))
	}
}

// createCustomer returns the new customer id, or "" when Square refused
func (s *Service) createCustomer(ctx context.Context, txn domain.Transaction) string {
	builder := order.NewRequestBuilder(s.newKey(s.settings.Sandbox, txn.ID), s.settings.LocationID, s.settings.SiteName, s.settings.Sandbox)
	customer, err := s.gateway.CreateCustomer(ctx, builder.BuildCustomer(txn))
	if err == nil && customer == nil {
		err = domain.ErrGatewayError
	}
	if err != nil {
		s.logger.Warn("create customer failed, paying without a customer",
			ports.Int64("transaction_id", txn.ID),
			ports.Err(err))
		return ""
	}
	return customer.ID
}

// CancelOrder cancels the Square order of an abandoned transaction
// Failures are logged and returned; there is no retry
func (s *Service) CancelOrder(ctx context.Context, txn domain.Transaction) error {
	if !txn.CanCancelOrder() {
		observability.RecordOrderCancellation("skipped")
		return domain.ErrTxnNotAbandoned.WithDetail("transaction_id", txn.ID)
	}
	if s.orders == nil {
		observability.RecordOrderCancellation("skipped")
		return domain.ErrOrderNotFound.WithDetail("transaction_id", txn.ID)
	}

	record, err := s.orders.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		observability.RecordOrderCancellation("skipped")
		return err
	}
	if !record.CanBeCanceled() {
		observability.RecordOrderCancellation("skipped")
		return domain.ErrOrderNotCancellable.
			WithDetail("order_id", record.OrderID).
			WithDetail("status", string(record.Status))
	}

	builder := order.NewRequestBuilder(s.newKey(s.settings.Sandbox, txn.ID), s.settings.LocationID, s.settings.SiteName, s.settings.Sandbox)
	cancelReq, err := builder.BuildCancel(record.OrderID, record.OrderVersion)
	if err != nil {
		observability.RecordOrderCancellation("failed")
		return err
	}

	updated, err := s.gateway.UpdateOrder(ctx, record.OrderID, cancelReq)
	if err != nil {
		s.logger.Error("cancel order failed",
			ports.Int64("transaction_id", txn.ID),
			ports.String("order_id", record.OrderID),
			ports.Int64("order_version", record.OrderVersion),
			ports.Err(err))
		observability.RecordOrderCancellation("failed")
		return gatewayError("cancel order", err)
	}

	version := cancelReq.Order.Version
	if updated != nil && updated.Version > 0 {
		version = updated.Version
	}
	if err := s.orders.MarkCanceled(ctx, txn.ID, version); err != nil {
		s.logger.Error("order canceled but not recorded",
			ports.Int64("transaction_id", txn.ID),
			ports.String("order_id", record.OrderID),
			ports.Err(err))
		observability.RecordOrderCancellation("failed")
		return err
	}

	observability.RecordOrderCancellation("canceled")
	s.logger.Info("order canceled",
		ports.Int64("transaction_id", txn.ID),
		ports.String("order_id", record.OrderID),
		ports.Int64("order_version", version))

	return nil
}

// ListLocations returns the merchant's Square locations
func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	locations, err := s.gateway.ListLocations(ctx)
	if err != nil {
		return nil, gatewayError("list locations", err)
	}
	return locations, nil
}

// VerifyLocation checks that the configured location belongs to the credentials
func (s *Service) VerifyLocation(ctx context.Context) error {
	locations, err := s.ListLocations(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		if loc.ID == s.settings.LocationID {
			return nil
		}
	}
	return domain.ErrValidationFailed.
		WithDetail("field", "location_id").
		WithDetail("location_id", s.settings.LocationID)
}

// gatewayError wraps a Square failure; declines keep GATEWAY_DECLINED
// The *pkgerrors.RequestError stays reachable through errors.As
func gatewayError(op string, err error) error {
	code := domain.ErrorCodeGatewayError
	if reqErr, ok := pkgerrors.AsRequestError(err); ok && reqErr.IsDomain() {
		code = domain.ErrorCodeGatewayDeclined
	}
	return domain.WrapError(code, op+" failed", err)
}

func failureStatus(err error) string {
	if reqErr, ok := pkgerrors.AsRequestError(err); ok && reqErr.IsDomain() {
		return "declined"
	}
	return "failed"
}
