package x402

import (
	"errors"
	"fmt"
)

// PaymentError is a coded error the gate surfaces to clients as a
// structured JSON body.
type PaymentError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPaymentError creates a new payment error.
func NewPaymentError(code, message string) *PaymentError {
	return &PaymentError{Code: code, Message: message}
}

// WithDetail attaches a detail value to the error, lazily allocating the map.
func (e *PaymentError) WithDetail(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes carried in 4xx/5xx bodies. Each maps to exactly one HTTP
// status: missing/term/stale/rejected codes to 402, malformed to 400,
// facilitator_unavailable to 503, internal_error to 500.
const (
	ErrCodeMissingPayment         = "missing_payment"
	ErrCodeMalformedPayment       = "malformed_payment"
	ErrCodeRecipientMismatch      = "recipient_mismatch"
	ErrCodeNetworkMismatch        = "network_mismatch"
	ErrCodeAssetMismatch          = "asset_mismatch"
	ErrCodeInvalidAmount          = "invalid_amount"
	ErrCodeInsufficientAmount     = "insufficient_amount"
	ErrCodeIncompletePayment      = "incomplete_payment"
	ErrCodePaymentExpired         = "payment_expired"
	ErrCodeNonceReused            = "nonce_reused"
	ErrCodeFacilitatorRejected    = "facilitator_rejected"
	ErrCodeFacilitatorUnavailable = "facilitator_unavailable"
	ErrCodeInternal               = "internal_error"
)

// Client-side sentinel errors. These abort claim construction and never
// reach the server.
var (
	// ErrSigningFailed wraps a signer refusal or failure.
	ErrSigningFailed = errors.New("x402: payment signing failed")

	// ErrEncodingFailed wraps a claim that cannot be encoded for signing.
	ErrEncodingFailed = errors.New("x402: claim encoding failed")

	// ErrAmountExceeded means the server's price is above the client's
	// configured per-call limit.
	ErrAmountExceeded = errors.New("x402: payment amount exceeds per-call limit")

	// ErrNoTermsOffered means a 402 response carried no usable accepts entry.
	ErrNoTermsOffered = errors.New("x402: 402 response carried no payment terms")
)
