package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/square-checkout/internal/domain/models"
)

// MockSquareGateway is a configurable ports.SquareGateway for testing
type MockSquareGateway struct {
	mu sync.Mutex

	// Responses to return
	calculateResponse *models.Order
	calculateError    error
	createResponse    *models.Order
	createError       error
	updateResponse    *models.Order
	updateError       error
	paymentResponse   *models.Payment
	paymentError      error
	completeResponse  *models.Payment
	completeError     error
	locations         []models.Location
	locationsError    error
	customerResponse  *models.Customer
	customerError     error

	// Call tracking
	CalculateCalls int
	CreateCalls    int
	UpdateCalls    int
	PaymentCalls   int
	CompleteCalls  int
	LocationCalls  int
	CustomerCalls  int

	// Last request received
	LastCalculateReq *models.CalculateOrderRequest
	LastCreateReq    *models.CreateOrderRequest
	LastUpdateReq    *models.UpdateOrderRequest
	LastUpdateID     string
	LastPaymentReq   *models.CreatePaymentRequest
	LastCompleteID   string
	LastCustomerReq  *models.CreateCustomerRequest
}

// NewMockSquareGateway creates a new mock gateway
func NewMockSquareGateway() *MockSquareGateway {
	return &MockSquareGateway{}
}

// SetCalculateResponse sets the response to return from CalculateOrder
func (m *MockSquareGateway) SetCalculateResponse(order *models.Order, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calculateResponse = order
	m.calculateError = err
}

// SetCalculatedTotal makes CalculateOrder return an order with the given total
func (m *MockSquareGateway) SetCalculatedTotal(amount int64, currency string) {
	m.SetCalculateResponse(&models.Order{TotalMoney: &models.Money{Amount: amount, Currency: currency}}, nil)
}

// SetCreateResponse sets the response to return from CreateOrder
func (m *MockSquareGateway) SetCreateResponse(order *models.Order, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createResponse = order
	m.createError = err
}

// SetUpdateResponse sets the response to return from UpdateOrder
func (m *MockSquareGateway) SetUpdateResponse(order *models.Order, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateResponse = order
	m.updateError = err
}

// SetPaymentResponse sets the response to return from CreatePayment
func (m *MockSquareGateway) SetPaymentResponse(payment *models.Payment, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentResponse = payment
	m.paymentError = err
}

// SetCompleteResponse sets the response to return from CompletePayment
func (m *MockSquareGateway) SetCompleteResponse(payment *models.Payment, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeResponse = payment
	m.completeError = err
}

// SetLocations sets the response to return from ListLocations
func (m *MockSquareGateway) SetLocations(locations []models.Location, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
	m.locationsError = err
}

// SetCustomerResponse sets the response to return from CreateCustomer
func (m *MockSquareGateway) SetCustomerResponse(customer *models.Customer, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerResponse = customer
	m.customerError = err
}

// CalculateOrder implements ports.OrderCalculator
func (m *MockSquareGateway) CalculateOrder(ctx context.Context, req *models.CalculateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CalculateCalls++
	m.LastCalculateReq = req
	return m.calculateResponse, m.calculateError
}

// CreateOrder implements ports.SquareGateway
func (m *MockSquareGateway) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	m.LastCreateReq = req
	return m.createResponse, m.createError
}

// UpdateOrder implements ports.SquareGateway
func (m *MockSquareGateway) UpdateOrder(ctx context.Context, orderID string, req *models.UpdateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	m.LastUpdateID = orderID
	m.LastUpdateReq = req
	return m.updateResponse, m.updateError
}

// CreatePayment implements ports.SquareGateway
func (m *MockSquareGateway) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentCalls++
	m.LastPaymentReq = req
	return m.paymentResponse, m.paymentError
}

// CompletePayment implements ports.SquareGateway
func (m *MockSquareGateway) CompletePayment(ctx context.Context, paymentID string, req *models.CompletePaymentRequest) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls++
	m.LastCompleteID = paymentID
	return m.completeResponse, m.completeError
}

// ListLocations implements ports.SquareGateway
func (m *MockSquareGateway) ListLocations(ctx context.Context) ([]models.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LocationCalls++
	return m.locations, m.locationsError
}

// CreateCustomer implements ports.SquareGateway
func (m *MockSquareGateway) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CustomerCalls++
	m.LastCustomerReq = req
	return m.customerResponse, m.customerError
}
