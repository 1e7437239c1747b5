package square

import (
	"strings"

	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
)

// ErrorCodeInfo describes a Square error code
type ErrorCodeInfo struct {
	Code               string
	Description        string
	Category           pkgerrors.ErrorCategory
	UserMessage        string
	IsDeclined         bool
	IsRetriable        bool
	RequiresUserAction bool
}

// Square error categories (the "category" field of an error entry)
const (
	apiErrorCategory            = "API_ERROR"
	authenticationErrorCategory = "AUTHENTICATION_ERROR"
	invalidRequestErrorCategory = "INVALID_REQUEST_ERROR"
	rateLimitErrorCategory      = "RATE_LIMIT_ERROR"
	paymentMethodErrorCategory  = "PAYMENT_METHOD_ERROR"
	refundErrorCategory         = "REFUND_ERROR"
)

var errorCodes = map[string]ErrorCodeInfo{
	// Card declines
	"GENERIC_DECLINE": {
		Description:        "Card was declined without a specific reason",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "Your card was declined. Please use a different payment method or contact your bank.",
	},
	"INSUFFICIENT_FUNDS": {
		Description:        "Insufficient funds",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInsufficientFunds,
		UserMessage:        "Insufficient funds. Please use a different payment method.",
	},
	"CARD_EXPIRED": {
		Description:        "Card is expired",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryExpiredCard,
		UserMessage:        "Your card has expired. Please use a different payment method.",
	},
	"INVALID_EXPIRATION": {
		Description:        "Expiration date is invalid",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "The card expiration date is invalid. Please check your card details.",
	},
	"CVV_FAILURE": {
		Description:        "CVV verification failed",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Incorrect security code. Please check the CVV on your card.",
	},
	"ADDRESS_VERIFICATION_FAILURE": {
		Description:        "Postal code verification failed",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "The postal code does not match your card. Please check your billing details.",
	},
	"INVALID_POSTAL_CODE": {
		Description:        "Postal code is invalid",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "The postal code is invalid. Please check your billing details.",
	},
	"INVALID_ACCOUNT": {
		Description:        "Card account is invalid",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Invalid card. Please check your card details.",
	},
	"INVALID_CARD": {
		Description:        "Card data is invalid",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Invalid card. Please check your card details.",
	},
	"CARD_NOT_SUPPORTED": {
		Description:        "Card brand or type not supported",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "This card is not supported. Please use a different payment method.",
	},
	"CARD_TOKEN_EXPIRED": {
		Description:        "Card nonce expired before use",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Your card session expired. Please re-enter your card details.",
	},
	"CARD_TOKEN_USED": {
		Description:        "Card nonce was already used",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Your card session expired. Please re-enter your card details.",
	},
	"CARD_DECLINED_VERIFICATION_REQUIRED": {
		Description:        "Buyer verification (SCA) is required",
		IsDeclined:         true,
		IsRetriable:        true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryAuthentication,
		UserMessage:        "Your bank requires additional verification. Please try again and complete the verification step.",
	},
	"TRANSACTION_LIMIT": {
		Description:        "Amount exceeds the card's transaction limit",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "The amount exceeds your card's limit. Please use a different payment method.",
	},
	"VOICE_FAILURE": {
		Description:        "Issuer requires voice authorization",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "Your card was declined. Please contact your bank.",
	},
	"PAN_FAILURE": {
		Description:        "Card number is invalid",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryInvalidCard,
		UserMessage:        "Invalid card number. Please check your card details.",
	},
	"BLOCKED_BY_BLOCKLIST": {
		Description:        "Payment blocked by seller risk rules",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryFraud,
		UserMessage:        "Transaction declined for security reasons.",
	},

	// Credentials
	"UNAUTHORIZED": {
		Description: "Access token is invalid",
		Category:    pkgerrors.CategoryAuthentication,
		UserMessage: "Payments are temporarily unavailable. Please contact the organizer.",
	},
	"ACCESS_TOKEN_EXPIRED": {
		Description: "Access token has expired",
		Category:    pkgerrors.CategoryAuthentication,
		UserMessage: "Payments are temporarily unavailable. Please contact the organizer.",
	},
	"ACCESS_TOKEN_REVOKED": {
		Description: "Access token was revoked",
		Category:    pkgerrors.CategoryAuthentication,
		UserMessage: "Payments are temporarily unavailable. Please contact the organizer.",
	},
	"INSUFFICIENT_SCOPES": {
		Description: "Access token lacks a required permission",
		Category:    pkgerrors.CategoryAuthentication,
		UserMessage: "Payments are temporarily unavailable. Please contact the organizer.",
	},
	"FORBIDDEN": {
		Description: "Operation not allowed for this seller",
		Category:    pkgerrors.CategoryAuthentication,
		UserMessage: "Payments are temporarily unavailable. Please contact the organizer.",
	},

	// Concurrency
	"IDEMPOTENCY_KEY_REUSED": {
		Description: "Idempotency key reused with a different request",
		Category:    pkgerrors.CategoryConflict,
		UserMessage: "This payment is already being processed. Please refresh the page before trying again.",
	},
	"VERSION_MISMATCH": {
		Description: "Order version does not match",
		Category:    pkgerrors.CategoryConflict,
		UserMessage: "The order changed while it was being processed. Please try again.",
	},
	"CONFLICT": {
		Description: "Request conflicts with the resource state",
		Category:    pkgerrors.CategoryConflict,
		UserMessage: "The order changed while it was being processed. Please try again.",
	},

	// Square side (retriable)
	"INTERNAL_SERVER_ERROR": {
		Description: "Square internal error",
		IsRetriable: true,
		Category:    pkgerrors.CategorySystemError,
		UserMessage: "Payment system error. Please try again in a few moments.",
	},
	"SERVICE_UNAVAILABLE": {
		Description: "Square is unavailable",
		IsRetriable: true,
		Category:    pkgerrors.CategorySystemError,
		UserMessage: "Payment system error. Please try again in a few moments.",
	},
	"GATEWAY_TIMEOUT": {
		Description: "Square timed out",
		IsRetriable: true,
		Category:    pkgerrors.CategorySystemError,
		UserMessage: "Payment system timeout. Please try again in a few moments.",
	},
	"RATE_LIMITED": {
		Description: "Too many requests",
		IsRetriable: true,
		Category:    pkgerrors.CategorySystemError,
		UserMessage: "Payment system busy. Please try again in a few moments.",
	},

	// Request errors
	"BAD_REQUEST": {
		Description: "Malformed request",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment could not be processed. Please contact the organizer.",
	},
	"INVALID_VALUE": {
		Description: "A field has an invalid value",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment could not be processed. Please contact the organizer.",
	},
	"MISSING_REQUIRED_PARAMETER": {
		Description: "A required field is missing",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment could not be processed. Please contact the organizer.",
	},
	"NOT_FOUND": {
		Description: "Resource not found",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment could not be processed. Please contact the organizer.",
	},
	"AMOUNT_TOO_HIGH": {
		Description: "Payment amount above the allowed maximum",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment amount is too high for online payment. Please contact the organizer.",
	},
	"VALUE_TOO_LOW": {
		Description: "Value below the allowed minimum",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment amount is too low for online payment. Please contact the organizer.",
	},
}

// categoryDefaults covers codes missing from the table, keyed by Square's error category
var categoryDefaults = map[string]ErrorCodeInfo{
	paymentMethodErrorCategory: {
		Description:        "Payment method error",
		IsDeclined:         true,
		RequiresUserAction: true,
		Category:           pkgerrors.CategoryDeclined,
		UserMessage:        "Your card was declined. Please use a different payment method or contact your bank.",
	},
	authenticationErrorCategory: errorCodes["UNAUTHORIZED"],
	rateLimitErrorCategory:      errorCodes["RATE_LIMITED"],
	apiErrorCategory:            errorCodes["INTERNAL_SERVER_ERROR"],
	invalidRequestErrorCategory: errorCodes["BAD_REQUEST"],
	refundErrorCategory:         errorCodes["BAD_REQUEST"],
}

// LookupErrorCode returns information about a Square error code
// Unknown codes fall back to their Square category, then to a generic request error
func LookupErrorCode(code, category string) ErrorCodeInfo {
	if info, exists := errorCodes[code]; exists {
		info.Code = code
		return info
	}
	if info, exists := categoryDefaults[strings.ToUpper(category)]; exists {
		info.Code = code
		return info
	}
	return ErrorCodeInfo{
		Code:        code,
		Description: "Unknown error code",
		Category:    pkgerrors.CategoryInvalidRequest,
		UserMessage: "The payment could not be processed. Please try again or contact the organizer.",
	}
}

// UserMessage returns a message safe to show a registrant for any error returned by the client
func UserMessage(err error) string {
	reqErr, ok := pkgerrors.AsRequestError(err)
	if !ok {
		return "The payment could not be processed. Please try again or contact the organizer."
	}
	if reqErr.IsDomain() {
		first := strings.SplitN(reqErr.Code, ",", 2)[0]
		if info, exists := errorCodes[first]; exists {
			return info.UserMessage
		}
		if reqErr.Category == pkgerrors.CategoryDeclined {
			return categoryDefaults[paymentMethodErrorCategory].UserMessage
		}
		return LookupErrorCode(first, "").UserMessage
	}
	return "Could not reach the payment provider. Please try again in a few moments."
}
