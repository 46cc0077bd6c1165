// Package x402 implements the x402 pay-per-request protocol for
// Substrate-style networks: a resource server answers unpaid requests with
// HTTP 402 and machine-readable payment terms, a client signs a payment
// claim matching those terms, and the server validates the claim and
// optionally confirms it with an external facilitator before serving.
package x402

import (
	"context"
	"time"
)

// X402Version is the protocol version carried in 402 bodies and claims.
// The claim wire format is versioned by this constant: the signature is
// embedded in the X-Payment JSON object, never sent as a separate header.
const X402Version = 1

// SchemeExact is the single payment scheme this implementation supports:
// exact amount, single asset, single recipient, time-boxed.
const SchemeExact = "exact"

// PaymentHeader is the request header carrying the JSON-encoded signed claim.
const PaymentHeader = "X-Payment"

// Defaults mirrored from the reference deployment.
const (
	// DefaultMaxPaymentAge bounds how old a claim's creation timestamp may be.
	DefaultMaxPaymentAge = 5 * time.Minute

	// DefaultValidityWindow is the claim lifetime a client requests.
	DefaultValidityWindow = 5 * time.Minute

	// DefaultMaxTimeoutSeconds is advertised in payment requirements.
	DefaultMaxTimeoutSeconds = 300

	// DefaultFacilitatorTimeout bounds a single settle round-trip.
	DefaultFacilitatorTimeout = 30 * time.Second
)

// contextKey is a private type so middleware context values cannot collide.
type contextKey struct{}

var verifiedPaymentKey contextKey

// WithVerifiedPayment returns a context carrying the verified payment.
// The gate middleware attaches it before invoking the protected handler.
func WithVerifiedPayment(ctx context.Context, vp *VerifiedPayment) context.Context {
	return context.WithValue(ctx, verifiedPaymentKey, vp)
}

// VerifiedPaymentFromContext extracts the verified payment attached by the
// gate middleware, or nil if the request was not payment-gated.
func VerifiedPaymentFromContext(ctx context.Context) *VerifiedPayment {
	vp, _ := ctx.Value(verifiedPaymentKey).(*VerifiedPayment)
	return vp
}
