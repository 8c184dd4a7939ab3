// Package errors provides standardized error handling for the banking client.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Session / credential errors
const (
	ErrCodeSessionExpired   ErrorCode = "SESSION_EXPIRED"
	ErrCodeBadCredentials   ErrorCode = "BAD_CREDENTIALS"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// Validation / business rule errors
const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicateUsername    ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmail       ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeInsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeSelfTransfer         ErrorCode = "SELF_TRANSFER"
	ErrCodeCaptchaMismatch      ErrorCode = "CAPTCHA_MISMATCH"
	ErrCodeAccountNotFound      ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeUnsupportedBank      ErrorCode = "UNSUPPORTED_BANK"
	ErrCodeMissingAccountNumber ErrorCode = "MISSING_ACCOUNT_NUMBER"
)

// Transport errors
const (
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeRequestTimeout   ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeQRTimeout        ErrorCode = "QR_TIMEOUT"
)

// Payload errors
const (
	ErrCodeQRDecodeFailed   ErrorCode = "QR_DECODE_FAILED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
)

const (
	ErrCodeAPIError      ErrorCode = "API_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata sets a metadata entry and returns the error for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Status returns the HTTP status recorded in the metadata, or 0.
func (e *StandardError) Status() int {
	if e.Metadata == nil {
		return 0
	}
	if s, ok := e.Metadata["status"].(int); ok {
		return s
	}
	return 0
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSessionExpiredError is returned after a 401 on an authenticated request.
func NewSessionExpiredError(details string) *StandardError {
	return newError(ErrCodeSessionExpired, "Session has expired, please sign in again", details, false)
}

func NewBadCredentialsError() *StandardError {
	return newError(ErrCodeBadCredentials, "Wrong username or password", "", false)
}

func NewPermissionDeniedError(details string) *StandardError {
	return newError(ErrCodePermissionDenied, "You do not have permission to perform this action", details, false)
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(message, details string) *StandardError {
	return newError(ErrCodeValidationFailed, message, details, false)
}

func NewDuplicateUsernameError() *StandardError {
	return newError(ErrCodeDuplicateUsername, "Username is already taken", "", false)
}

func NewDuplicateEmailError() *StandardError {
	return newError(ErrCodeDuplicateEmail, "Email is already registered", "", false)
}

func NewInsufficientBalanceError(details string) *StandardError {
	return newError(ErrCodeInsufficientBalance, "Insufficient balance", details, false)
}

func NewSelfTransferError() *StandardError {
	return newError(ErrCodeSelfTransfer, "Cannot transfer to self", "", false)
}

func NewCaptchaMismatchError() *StandardError {
	return newError(ErrCodeCaptchaMismatch, "Captcha does not match", "", false)
}

// NewAccountNotFoundError reports a destination account the lookup could not resolve.
func NewAccountNotFoundError(accountNumber string) *StandardError {
	return newError(ErrCodeAccountNotFound, "Account not found", fmt.Sprintf("accountNumber: %s", accountNumber), false)
}

func NewUnsupportedBankError(bankCode string) *StandardError {
	return newError(ErrCodeUnsupportedBank, "QR code belongs to an unsupported bank", fmt.Sprintf("bankCode: %s", bankCode), false)
}

func NewMissingAccountNumberError() *StandardError {
	return newError(ErrCodeMissingAccountNumber, "QR code has no account number", "", false)
}

// NewTransportFailureError wraps a network-level failure.
func NewTransportFailureError(err error) *StandardError {
	e := newError(ErrCodeTransportFailure, "Could not reach the server", err.Error(), true)
	e.cause = err
	return e
}

// NewRequestTimeoutError is displayed as a transport failure.
func NewRequestTimeoutError(err error) *StandardError {
	e := newError(ErrCodeRequestTimeout, "Could not reach the server", err.Error(), true)
	e.cause = err
	return e
}

func NewQRTimeoutError() *StandardError {
	return newError(ErrCodeQRTimeout, "Scan took too long, try again", "", true)
}

func NewQRDecodeFailedError(err error) *StandardError {
	e := newError(ErrCodeQRDecodeFailed, "Could not read a QR code from the image", err.Error(), false)
	e.cause = err
	return e
}

// NewMalformedPayloadError creates a non-retryable error for unparseable external data.
func NewMalformedPayloadError(source, details string) *StandardError {
	return newError(ErrCodeMalformedPayload, fmt.Sprintf("Malformed %s payload", source), details, false)
}

// NewAPIError carries a non-special HTTP status and the server's message.
func NewAPIError(status int, message string) *StandardError {
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", status)
	}
	e := newError(ErrCodeAPIError, message, "", status >= 500)
	return e.WithMetadata("status", status).WithMetadata("message", message)
}

func NewInternalError(err error) *StandardError {
	e := newError(ErrCodeInternalError, "Unexpected error", err.Error(), false)
	e.cause = err
	return e
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeTransportFailure, ErrCodeRequestTimeout, ErrCodeQRTimeout:
		return true
	default:
		return false
	}
}

// Error categories.
const (
	CategorySession    = "SESSION"
	CategoryCredential = "CREDENTIAL"
	CategoryPermission = "PERMISSION"
	CategoryValidation = "VALIDATION"
	CategoryTransport  = "TRANSPORT"
	CategoryPayload    = "PAYLOAD"
	CategoryOther      = "OTHER"
)

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeSessionExpired:
		return CategorySession
	case ErrCodeBadCredentials:
		return CategoryCredential
	case ErrCodePermissionDenied:
		return CategoryPermission
	case ErrCodeValidationFailed, ErrCodeDuplicateUsername, ErrCodeDuplicateEmail,
		ErrCodeInsufficientBalance, ErrCodeSelfTransfer, ErrCodeCaptchaMismatch,
		ErrCodeAccountNotFound, ErrCodeUnsupportedBank, ErrCodeMissingAccountNumber:
		return CategoryValidation
	case ErrCodeTransportFailure, ErrCodeRequestTimeout, ErrCodeQRTimeout:
		return CategoryTransport
	case ErrCodeQRDecodeFailed, ErrCodeMalformedPayload:
		return CategoryPayload
	default:
		return CategoryOther
	}
}
