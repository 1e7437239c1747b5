package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kevin07696/square-checkout/internal/adapters/square"
	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

const maxRequestBytes = 1 << 20

// Handler exposes the checkout service over HTTP
type Handler struct {
	service ports.CheckoutService
	logger  ports.Logger
}

// NewHandler creates a new checkout handler
func NewHandler(service ports.CheckoutService, logger ports.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the checkout endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.ProcessPayment)
	r.Post("/orders/cancel", h.CancelOrder)
	r.Get("/locations", h.ListLocations)
}

type cancelOrderRequest struct {
	Transaction domain.Transaction `json:"transaction"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ProcessPayment charges a transaction
// Endpoint: POST /api/v1/payments
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req ports.PaymentRequest
	if err := decode(w, r, &req); err != nil {
		h.logger.Warn("invalid payment request", ports.Err(err))
		h.writeError(w, r, http.StatusBadRequest, string(domain.ErrorCodeValidationFailed), "request body must be a valid payment request")
		return
	}

	result, err := h.service.ProcessPayment(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CancelOrder cancels the order of an abandoned transaction
// Endpoint: POST /api/v1/orders/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := decode(w, r, &req); err != nil {
		h.logger.Warn("invalid cancel request", ports.Err(err))
		h.writeError(w, r, http.StatusBadRequest, string(domain.ErrorCodeValidationFailed), "request body must contain a transaction")
		return
	}

	if err := h.service.CancelOrder(r.Context(), req.Transaction); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLocations returns the merchant's Square locations
// Endpoint: GET /api/v1/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"locations": locations})
}

// handleError maps service errors to HTTP status codes
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.GetErrorCode(err)
	status := statusFor(code)

	message := err.Error()
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	if code == domain.ErrorCodeGatewayDeclined || code == domain.ErrorCodeGatewayError {
		message = square.UserMessage(err)
	}
	if code == "" {
		code = domain.ErrorCodeInternalError
		message = "internal error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("checkout request failed",
			ports.String("path", r.URL.Path),
			ports.String("code", string(code)),
			ports.Err(err))
	}

	h.writeError(w, r, status, string(code), message)
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrorCodeValidationFailed,
		domain.ErrorCodeValidationAmountInvalid,
		domain.ErrorCodeValidationMissingField:
		return http.StatusBadRequest
	case domain.ErrorCodeGatewayDeclined:
		return http.StatusPaymentRequired
	case domain.ErrorCodeOrderNotFound:
		return http.StatusNotFound
	case domain.ErrorCodeTxnNotAbandoned, domain.ErrorCodeOrderNotCancellable:
		return http.StatusConflict
	case domain.ErrorCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
