package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidConfiguration indicates missing or malformed settings. Raised at startup only.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrUpstreamClient indicates the rate provider rejected the request itself.
var ErrUpstreamClient = errors.New("upstream client error")

// ErrUpstreamServer indicates the rate provider failed or could not be reached.
var ErrUpstreamServer = errors.New("upstream server error")

// ErrTargetCurrencyNotFound indicates a rebase target that the rate table does not contain.
var ErrTargetCurrencyNotFound = errors.New("target currency not found")

// ErrCacheStore indicates that persisting a rate snapshot failed.
var ErrCacheStore = errors.New("cache store failure")

// AppError carries an HTTP-ish status code next to the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, msg string, err error) *AppError {
	return &AppError{Code: code, Message: msg, Err: err}
}

// NewNotFoundError wraps ErrNotFound with a message.
func NewNotFoundError(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg, Err: ErrNotFound}
}

// NewValidationError wraps ErrValidation with a message.
func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Err: ErrValidation}
}

// NewCacheStoreError wraps a persistence failure so it matches ErrCacheStore.
func NewCacheStoreError(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg, Err: errors.Join(ErrCacheStore, err)}
}

// UpstreamErrorClass tells whether the provider blamed the request or itself.
type UpstreamErrorClass int

const (
	UpstreamClientClass UpstreamErrorClass = iota + 1
	UpstreamServerClass
)

func (c UpstreamErrorClass) String() string {
	switch c {
	case UpstreamClientClass:
		return "client"
	case UpstreamServerClass:
		return "server"
	default:
		return "unknown"
	}
}

// Upstream error kinds. Informational; callers branch on the class only.
const (
	KindInvalidRequest      = "invalid_request"
	KindInvalidParameters   = "invalid_parameters"
	KindRateLimitExceeded   = "rate_limit_exceeded"
	KindServiceUnavailable  = "service_unavailable"
	KindInternalServerError = "internal_server_error"
	KindGatewayTimeout      = "gateway_timeout"
)

// UpstreamError is a failure reported by (or while talking to) the rate provider.
type UpstreamError struct {
	Class  UpstreamErrorClass
	Kind   string
	Reason string
	Err    error
}

// NewUpstreamClientError builds a client-class UpstreamError.
func NewUpstreamClientError(kind, reason string, err error) *UpstreamError {
	return &UpstreamError{Class: UpstreamClientClass, Kind: kind, Reason: reason, Err: err}
}

// NewUpstreamServerError builds a server-class UpstreamError.
func NewUpstreamServerError(kind, reason string, err error) *UpstreamError {
	return &UpstreamError{Class: UpstreamServerClass, Kind: kind, Reason: reason, Err: err}
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream %s error (%s): %s", e.Class, e.Kind, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstreamClient) and errors.Is(err, ErrUpstreamServer) follow the class.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamClient:
		return e.Class == UpstreamClientClass
	case ErrUpstreamServer:
		return e.Class == UpstreamServerClass
	}
	return false
}

// TargetCurrencyNotFoundError names the currency missing from a rate table.
type TargetCurrencyNotFoundError struct {
	Currency string
}

func (e *TargetCurrencyNotFoundError) Error() string {
	return fmt.Sprintf("target currency %s not found in rate table", e.Currency)
}

func (e *TargetCurrencyNotFoundError) Is(target error) bool {
	return target == ErrTargetCurrencyNotFound
}
