package square

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kevin07696/square-checkout/internal/domain/models"
	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
	"github.com/kevin07696/square-checkout/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSquareTest(t *testing.T, handler http.HandlerFunc) (*Client, *mocks.MockLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := mocks.NewMockLogger()
	config := Config{
		AccessToken: "EAAAtest-token",
		BaseURL:     server.URL,
		Sandbox:     true,
	}
	return NewClient(config, &http.Client{Timeout: 5 * time.Second}, logger), logger
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, "https://connect.squareupsandbox.com", BaseURLFor(true))
	assert.Equal(t, "https://connect.squareup.com", BaseURLFor(false))

	c := NewClient(Config{Sandbox: false}, &http.Client{}, mocks.NewMockLogger())
	assert.Equal(t, ProductionBaseURL, c.BaseURL())

	c = NewClient(Config{BaseURL: "http://localhost:9999/"}, &http.Client{}, mocks.NewMockLogger())
	assert.Equal(t, "http://localhost:9999", c.BaseURL())
}

func TestClient_CreateOrder_Success(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "Bearer EAAAtest-token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultAPIVersion, r.Header.Get("Square-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TEST-payment-123-77", req.IdempotencyKey)
		assert.Equal(t, "LOC1", req.Order.LocationID)
		require.Len(t, req.Order.LineItems, 1)
		assert.Equal(t, int64(1000), req.Order.LineItems[0].BasePriceMoney.Amount)

		writeJSON(w, http.StatusOK, `{"order":{"id":"ORDER1","location_id":"LOC1","version":1,"state":"OPEN",
			"total_money":{"amount":1000,"currency":"USD"}}}`)
	})

	order, err := client.CreateOrder(context.Background(), &models.CreateOrderRequest{
		IdempotencyKey: "TEST-payment-123-77",
		Order: &models.Order{
			LocationID: "LOC1",
			LineItems: []models.OrderLineItem{
				{Name: "Ticket", Quantity: "1", BasePriceMoney: &models.Money{Amount: 1000, Currency: "USD"}},
			},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "ORDER1", order.ID)
	assert.Equal(t, int64(1), order.Version)
	assert.Equal(t, models.OrderStateOpen, order.State)
	assert.Equal(t, int64(1000), order.TotalMoney.Amount)
}

func TestClient_CreateOrder_RequiresIdempotencyKey(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.CreateOrder(context.Background(), &models.CreateOrderRequest{Order: &models.Order{}})
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestClient_CalculateOrder(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders/calculate", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "order")
		assert.NotContains(t, body, "idempotency_key")

		writeJSON(w, http.StatusOK, `{"order":{"location_id":"LOC1","total_money":{"amount":1005,"currency":"USD"}}}`)
	})

	order, err := client.CalculateOrder(context.Background(), &models.CalculateOrderRequest{Order: &models.Order{LocationID: "LOC1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1005), order.TotalMoney.Amount)
}

func TestClient_UpdateOrder(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v2/orders/ORDER1", r.URL.Path)

		var req models.UpdateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(4), req.Order.Version)
		assert.Equal(t, models.OrderStateCanceled, req.Order.State)

		writeJSON(w, http.StatusOK, `{"order":{"id":"ORDER1","version":5,"state":"CANCELED","location_id":"LOC1"}}`)
	})

	order, err := client.UpdateOrder(context.Background(), "ORDER1", &models.UpdateOrderRequest{
		IdempotencyKey: "k",
		Order:          &models.Order{LocationID: "LOC1", Version: 4, State: models.OrderStateCanceled},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateCanceled, order.State)

	_, err = client.UpdateOrder(context.Background(), "", &models.UpdateOrderRequest{})
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestClient_CreatePayment_Declined(t *testing.T) {
	client, logger := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payments", r.URL.Path)
		writeJSON(w, http.StatusPaymentRequired, `{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CVV_FAILURE","detail":"Authorization error: 'CVV_FAILURE'"}],
			"payment":{"id":"PAY1","status":"FAILED"}}`)
	})

	payment, err := client.CreatePayment(context.Background(), &models.CreatePaymentRequest{
		SourceID:       "cnon:card-nonce-rejected-cvv",
		IdempotencyKey: "k",
		AmountMoney:    models.Money{Amount: 1000, Currency: "USD"},
		LocationID:     "LOC1",
	})

	assert.Nil(t, payment)
	reqErr := requireRequestError(t, err)
	assert.True(t, reqErr.IsDomain())
	assert.Equal(t, "CVV_FAILURE", reqErr.Code)
	assert.Equal(t, pkgerrors.CategoryInvalidCard, reqErr.Category)
	assert.True(t, logger.HasWarn("Square rejected request"))
}

func TestClient_CreatePayment_Success(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ORDER1", req["order_id"])
		assert.Equal(t, false, req["autocomplete"])

		writeJSON(w, http.StatusOK, `{"payment":{"id":"PAY1","status":"APPROVED","order_id":"ORDER1","version_token":"v1",
			"amount_money":{"amount":1000,"currency":"USD"}}}`)
	})

	autocomplete := false
	payment, err := client.CreatePayment(context.Background(), &models.CreatePaymentRequest{
		SourceID:       "cnon:card-nonce-ok",
		IdempotencyKey: "k",
		AmountMoney:    models.Money{Amount: 1000, Currency: "USD"},
		LocationID:     "LOC1",
		OrderID:        "ORDER1",
		Autocomplete:   &autocomplete,
	})

	require.NoError(t, err)
	assert.Equal(t, "PAY1", payment.ID)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)
	assert.Equal(t, "v1", payment.VersionToken)
}

func TestClient_CreatePayment_RequiresSource(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.CreatePayment(context.Background(), &models.CreatePaymentRequest{})
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestClient_CompletePayment(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/payments/PAY1/complete", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"payment":{"id":"PAY1","status":"COMPLETED","receipt_url":"https://squareup.com/receipt/preview/PAY1"}}`)
	})

	payment, err := client.CompletePayment(context.Background(), "PAY1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.NotEmpty(t, payment.ReceiptURL)
}

func TestClient_ListLocations(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/locations", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, `{"locations":[{"id":"LOC1","name":"Main","status":"ACTIVE","currency":"USD","country":"US",
			"capabilities":["CREDIT_CARD_PROCESSING"]}]}`)
	})

	locations, err := client.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "LOC1", locations[0].ID)
	assert.Equal(t, []string{"CREDIT_CARD_PROCESSING"}, locations[0].Capabilities)
}

func TestClient_CreateCustomer_MissingField(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/customers", r.URL.Path)
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := client.CreateCustomer(context.Background(), &models.CreateCustomerRequest{IdempotencyKey: "k", GivenName: "Ada"})

	reqErr := requireRequestError(t, err)
	assert.Equal(t, pkgerrors.KindMissingField, reqErr.Kind)
	assert.Equal(t, "missing_customer", reqErr.Code)
}

func TestClient_ServerErrorIsTransport(t *testing.T) {
	client, logger := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListLocations(context.Background())

	reqErr := requireRequestError(t, err)
	assert.True(t, reqErr.IsTransport())
	assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
	assert.True(t, logger.HasError("Square request failed"))
}

func TestClient_NetworkFailure(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	client := NewClient(Config{AccessToken: "t", Sandbox: true}, httpClient, mocks.NewMockLogger())

	_, err := client.CalculateOrder(context.Background(), &models.CalculateOrderRequest{Order: &models.Order{}})

	reqErr := requireRequestError(t, err)
	assert.Equal(t, pkgerrors.KindTransport, reqErr.Kind)
	assert.Equal(t, pkgerrors.CodeTransport, reqErr.Code)
	require.Equal(t, 1, httpClient.CallCount())
	assert.Equal(t, "connect.squareupsandbox.com", httpClient.Calls[0].URL.Host)
}

func TestClient_CircuitBreakerShortCircuits(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	breaker := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Hour})
	client := NewClient(Config{AccessToken: "t"}, httpClient, mocks.NewMockLogger(), WithCircuitBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := client.ListLocations(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, breaker.State())

	_, err := client.ListLocations(context.Background())
	reqErr := requireRequestError(t, err)
	assert.Equal(t, pkgerrors.CodeCircuitOpen, reqErr.Code)
	assert.Equal(t, 2, httpClient.CallCount(), "open circuit must not reach Square")
}

func TestClient_DeclinesDoNotOpenCircuit(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return mocks.JSONResponse(http.StatusPaymentRequired, `{"errors":[{"code":"GENERIC_DECLINE","detail":"declined"}]}`), nil
	})
	breaker := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour})
	client := NewClient(Config{AccessToken: "t"}, httpClient, mocks.NewMockLogger(), WithCircuitBreaker(breaker))

	for i := 0; i < 3; i++ {
		_, err := client.CreatePayment(context.Background(), &models.CreatePaymentRequest{SourceID: "cnon"})
		require.Error(t, err)
	}

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, 3, httpClient.CallCount())
}

func TestClient_ContextCanceled(t *testing.T) {
	client, _ := setupSquareTest(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"locations":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListLocations(ctx)

	reqErr := requireRequestError(t, err)
	assert.True(t, reqErr.IsTransport())
	assert.ErrorIs(t, err, context.Canceled)
}
