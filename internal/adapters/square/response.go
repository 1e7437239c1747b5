package square

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
)

// Exchange is the raw outcome of one HTTP call to Square
type Exchange struct {
	TransportErr error
	Body         []byte
	StatusCode   int
}

// APIError is one entry of Square's errors envelope
type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

// Validate classifies an exchange and returns the raw value of the expected top-level field
//
//	transport failure, or non-2xx without an errors envelope -> KindTransport
//	empty body                                              -> no_body
//	body that is not a JSON object                          -> unrecognizable_body
//	errors array                                            -> KindDomain (codes joined by ",")
//	field absent or null                                    -> missing_<field>
//
// Every failure is a *pkgerrors.RequestError.
func Validate(ex Exchange, field string) (json.RawMessage, error) {
	if ex.TransportErr != nil {
		reqErr := pkgerrors.NewTransportError(pkgerrors.CodeTransport, "failed to reach Square", ex.TransportErr)
		reqErr.StatusCode = ex.StatusCode
		return nil, reqErr
	}

	success := ex.StatusCode >= 200 && ex.StatusCode < 300
	body := bytes.TrimSpace(ex.Body)

	if len(body) == 0 {
		if !success {
			return nil, statusError(ex.StatusCode)
		}
		reqErr := pkgerrors.NewRequestError(pkgerrors.KindEmptyBody, pkgerrors.CodeNoBody, "Square returned an empty response")
		reqErr.Category = pkgerrors.CategorySystemError
		reqErr.StatusCode = ex.StatusCode
		return nil, reqErr
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		if !success {
			return nil, statusError(ex.StatusCode)
		}
		reqErr := pkgerrors.NewRequestError(pkgerrors.KindUnparseable, pkgerrors.CodeUnrecognizableBody, "Square returned an unrecognizable response")
		reqErr.Category = pkgerrors.CategorySystemError
		reqErr.StatusCode = ex.StatusCode
		return nil, reqErr
	}

	if apiErrors := decodeErrors(envelope["errors"]); len(apiErrors) > 0 {
		return nil, domainError(apiErrors, ex.StatusCode)
	}

	if !success {
		return nil, statusError(ex.StatusCode)
	}

	raw, ok := envelope[field]
	if !ok || isNull(raw) {
		reqErr := pkgerrors.NewRequestError(pkgerrors.KindMissingField, "missing_"+field,
			fmt.Sprintf("Square response has no %s", field))
		reqErr.Category = pkgerrors.CategorySystemError
		reqErr.StatusCode = ex.StatusCode
		return nil, reqErr
	}

	return raw, nil
}

// decode unmarshals a validated field into T
func decode[T any](raw json.RawMessage, field string) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		reqErr := pkgerrors.NewRequestError(pkgerrors.KindUnparseable, pkgerrors.CodeUnrecognizableBody,
			fmt.Sprintf("Square returned an unrecognizable %s", field))
		reqErr.Err = err
		reqErr.Category = pkgerrors.CategorySystemError
		return nil, reqErr
	}
	return &out, nil
}

func decodeErrors(raw json.RawMessage) []APIError {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var apiErrors []APIError
	if err := json.Unmarshal(raw, &apiErrors); err != nil {
		return nil
	}
	return apiErrors
}

func domainError(apiErrors []APIError, statusCode int) *pkgerrors.RequestError {
	codes := make([]string, 0, len(apiErrors))
	details := make([]string, 0, len(apiErrors))
	for _, e := range apiErrors {
		if e.Code != "" {
			codes = append(codes, e.Code)
		}
		if e.Detail != "" {
			details = append(details, e.Detail)
		}
	}

	info := LookupErrorCode(apiErrors[0].Code, apiErrors[0].Category)
	return &pkgerrors.RequestError{
		Kind:       pkgerrors.KindDomain,
		Code:       strings.Join(codes, ","),
		Message:    strings.Join(details, " "),
		Category:   info.Category,
		StatusCode: statusCode,
		Retriable:  info.IsRetriable,
	}
}

func statusError(statusCode int) *pkgerrors.RequestError {
	reqErr := pkgerrors.NewTransportError(pkgerrors.CodeTransport,
		fmt.Sprintf("Square returned HTTP %d", statusCode), nil)
	reqErr.StatusCode = statusCode
	if statusCode >= 400 && statusCode < 500 && statusCode != 429 {
		reqErr.Retriable = false
	}
	return reqErr
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
