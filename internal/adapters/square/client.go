package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevin07696/square-checkout/internal/domain/models"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
	pkghttp "github.com/kevin07696/square-checkout/pkg/http"
	"github.com/kevin07696/square-checkout/pkg/observability"
)

const (
	SandboxBaseURL    = "https://connect.squareupsandbox.com"
	ProductionBaseURL = "https://connect.squareup.com"

	// DefaultAPIVersion pins the Square-Version header
	DefaultAPIVersion = "2024-10-17"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config holds the Square credentials and endpoint selection
type Config struct {
	AccessToken string
	APIVersion  string
	// BaseURL overrides the sandbox/production URL (tests, proxies)
	BaseURL string
	Sandbox bool
}

// BaseURLFor returns the Square Connect URL for an environment
func BaseURLFor(sandbox bool) string {
	if sandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// Client implements ports.SquareGateway over the Square REST API
type Client struct {
	config     Config
	baseURL    string
	httpClient ports.HTTPClient
	logger     ports.Logger
	breaker    *CircuitBreaker
}

// Option customizes a Client
type Option func(*Client)

// WithCircuitBreaker guards every call with cb
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// NewClient creates a Square client with dependency injection
func NewClient(config Config, httpClient ports.HTTPClient, logger ports.Logger, opts ...Option) *Client {
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURLFor(config.Sandbox)
	}

	c := &Client{
		config:     config,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithDefaults creates a Square client with the tuned HTTP client
func NewClientWithDefaults(config Config, timeout time.Duration, logger ports.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClient(config, pkghttp.NewHTTPClient(pkghttp.SquareClientConfig(), timeout), logger, opts...)
}

// BaseURL returns the URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CalculateOrder implements ports.OrderCalculator
func (c *Client) CalculateOrder(ctx context.Context, req *models.CalculateOrderRequest) (*models.Order, error) {
	raw, err := c.call(ctx, "calculate_order", http.MethodPost, "/v2/orders/calculate", req, "order")
	if err != nil {
		return nil, err
	}
	return decode[models.Order](raw, "order")
}

// CreateOrder implements ports.SquareGateway
func (c *Client) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if req.IdempotencyKey == "" {
		return nil, pkgerrors.NewValidationError("idempotency_key", "idempotency key is required")
	}
	raw, err := c.call(ctx, "create_order", http.MethodPost, "/v2/orders", req, "order")
	if err != nil {
		return nil, err
	}
	return decode[models.Order](raw, "order")
}

// UpdateOrder implements ports.SquareGateway
func (c *Client) UpdateOrder(ctx context.Context, orderID string, req *models.UpdateOrderRequest) (*models.Order, error) {
	if orderID == "" {
		return nil, pkgerrors.NewValidationError("order_id", "order id is required")
	}
	endpoint := "/v2/orders/" + url.PathEscape(orderID)
	raw, err := c.call(ctx, "update_order", http.MethodPut, endpoint, req, "order")
	if err != nil {
		return nil, err
	}
	return decode[models.Order](raw, "order")
}

// CreatePayment implements ports.SquareGateway
func (c *Client) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if req.SourceID == "" {
		return nil, pkgerrors.NewValidationError("source_id", "payment source is required")
	}
	raw, err := c.call(ctx, "create_payment", http.MethodPost, "/v2/payments", req, "payment")
	if err != nil {
		return nil, err
	}
	return decode[models.Payment](raw, "payment")
}

// CompletePayment implements ports.SquareGateway
func (c *Client) CompletePayment(ctx context.Context, paymentID string, req *models.CompletePaymentRequest) (*models.Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.NewValidationError("payment_id", "payment id is required")
	}
	if req == nil {
		req = &models.CompletePaymentRequest{}
	}
	endpoint := fmt.Sprintf("/v2/payments/%s/complete", url.PathEscape(paymentID))
	raw, err := c.call(ctx, "complete_payment", http.MethodPost, endpoint, req, "payment")
	if err != nil {
		return nil, err
	}
	return decode[models.Payment](raw, "payment")
}

// ListLocations implements ports.SquareGateway
func (c *Client) ListLocations(ctx context.Context) ([]models.Location, error) {
	raw, err := c.call(ctx, "list_locations", http.MethodGet, "/v2/locations", nil, "locations")
	if err != nil {
		return nil, err
	}
	locations, err := decode[[]models.Location](raw, "locations")
	if err != nil {
		return nil, err
	}
	return *locations, nil
}

// CreateCustomer implements ports.SquareGateway
func (c *Client) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	raw, err := c.call(ctx, "create_customer", http.MethodPost, "/v2/customers", req, "customer")
	if err != nil {
		return nil, err
	}
	return decode[models.Customer](raw, "customer")
}

// call runs one request through the circuit breaker and validates the answer
func (c *Client) call(ctx context.Context, name, method, endpoint string, request interface{}, field string) (json.RawMessage, error) {
	start := time.Now()

	var raw json.RawMessage
	run := func() error {
		ex, err := c.makeRequest(ctx, method, endpoint, request)
		if err != nil {
			return err
		}
		raw, err = Validate(ex, field)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(run)
	} else {
		err = run()
	}

	observability.RecordSquareRequest(name, outcome(err), time.Since(start).Seconds())

	if err != nil {
		c.logFailure(name, method, endpoint, err)
		return nil, err
	}
	return raw, nil
}

// makeRequest sends one request to Square and reads the full response
// Only request-building failures are returned as errors; transport failures go into the Exchange
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, request interface{}) (Exchange, error) {
	var body io.Reader
	if request != nil {
		payloadBytes, err := json.Marshal(request)
		if err != nil {
			return Exchange{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	httpReq.Header.Set("Square-Version", c.config.APIVersion)
	httpReq.Header.Set("Accept", "application/json")
	if request != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("making request to Square",
		ports.String("method", method),
		ports.String("endpoint", endpoint),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Exchange{TransportErr: err}, nil
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return Exchange{TransportErr: fmt.Errorf("failed to read response body: %w", err), StatusCode: httpResp.StatusCode}, nil
	}

	return Exchange{StatusCode: httpResp.StatusCode, Body: respBody}, nil
}

func (c *Client) logFailure(name, method, endpoint string, err error) {
	fields := []ports.Field{
		ports.String("call", name),
		ports.String("method", method),
		ports.String("endpoint", endpoint),
		ports.Err(err),
	}
	if reqErr, ok := pkgerrors.AsRequestError(err); ok {
		fields = append(fields,
			ports.String("kind", string(reqErr.Kind)),
			ports.String("code", reqErr.Code),
			ports.Int("status_code", reqErr.StatusCode))
		if reqErr.IsDomain() {
			c.logger.Warn("Square rejected request", fields...)
			return
		}
	}
	c.logger.Error("Square request failed", fields...)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	reqErr, ok := pkgerrors.AsRequestError(err)
	if !ok {
		return "error"
	}
	if reqErr.Code == pkgerrors.CodeCircuitOpen {
		return "circuit_open"
	}
	return string(reqErr.Kind)
}
