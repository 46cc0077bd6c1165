package x402

import (
	"bytes"
	"fmt"
	"time"

	"github.com/polkax402/x402-go/substrate"
)

// ValidationPolicy tunes the local claim checks.
type ValidationPolicy struct {
	// MaxPaymentAge bounds now minus the claim's creation timestamp.
	// Zero means DefaultMaxPaymentAge. The claim's own validUntil is
	// carried for the chain verifier; age-from-creation is the bound
	// enforced here.
	MaxPaymentAge time.Duration
}

func (p ValidationPolicy) maxAge() time.Duration {
	if p.MaxPaymentAge <= 0 {
		return DefaultMaxPaymentAge
	}
	return p.MaxPaymentAge
}

// Rejection names exactly why a claim was refused. Reasons are specific on
// purpose: a paying client debugging a mismatch needs more than "invalid".
type Rejection struct {
	Code    string
	Reason  string
	Details map[string]interface{}
}

func reject(code, format string, args ...interface{}) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// ValidateClaim runs the local checks a server performs before any network
// call, in a fixed order, short-circuiting on the first failure:
//
//  1. recipient matches the configured recipient
//  2. network matches
//  3. asset matches
//  4. amount is at least the required amount (overpay allowed)
//  5. required fields are present and the validity window is sane
//  6. the claim is fresh (now - timestamp <= max age)
//
// It returns nil when the claim passes. Signature verification against
// chain state is deliberately not done here; only the facilitator has the
// authoritative account and nonce ledger.
func ValidateClaim(claim *PaymentClaim, req *PaymentRequirements, policy ValidationPolicy, now time.Time) *Rejection {
	if !sameAddress(claim.To, req.PayTo) {
		return reject(ErrCodeRecipientMismatch,
			"claim pays %q, expected recipient %q", claim.To, req.PayTo)
	}

	if claim.Network != req.Network {
		return reject(ErrCodeNetworkMismatch,
			"claim is for network %q, expected %q", claim.Network, req.Network)
	}

	if !sameAddress(claim.Asset, req.Asset) {
		return reject(ErrCodeAssetMismatch,
			"claim pays in asset %q, expected %q", claim.Asset, req.Asset)
	}

	required, err := req.RequiredUnits()
	if err != nil {
		return reject(ErrCodeInvalidAmount, "required amount: %v", err)
	}
	offered, err := claim.AmountUnits()
	if err != nil {
		return reject(ErrCodeInvalidAmount, "claim amount: %v", err)
	}
	if offered.Cmp(required) < 0 {
		return reject(ErrCodeInsufficientAmount,
			"claim amount %s is below required %s", claim.Amount, req.MaxAmountRequired)
	}

	switch {
	case claim.From == "":
		return reject(ErrCodeIncompletePayment, "claim is missing sender address")
	case claim.Nonce == "":
		return reject(ErrCodeIncompletePayment, "claim is missing nonce")
	case claim.Signature == "":
		return reject(ErrCodeIncompletePayment, "claim is missing signature")
	case claim.Timestamp <= 0:
		return reject(ErrCodeIncompletePayment, "claim is missing timestamp")
	case claim.ValidUntil <= claim.Timestamp:
		return reject(ErrCodeIncompletePayment,
			"claim validUntil %d is not after timestamp %d", claim.ValidUntil, claim.Timestamp)
	}

	maxAge := policy.maxAge()
	age := time.Duration(now.UnixMilli()-claim.Timestamp) * time.Millisecond
	if age > maxAge {
		r := reject(ErrCodePaymentExpired,
			"claim is %dms old, max age is %dms", age.Milliseconds(), maxAge.Milliseconds())
		r.Details = map[string]interface{}{
			"maxPaymentAgeMs": maxAge.Milliseconds(),
			"paymentAgeMs":    age.Milliseconds(),
		}
		return r
	}

	return nil
}

// sameAddress compares two SS58 addresses by their decoded public keys, so
// renderings of the same key under different network prefixes compare
// equal. Strings that do not decode fall back to exact comparison.
func sameAddress(a, b string) bool {
	if a == b {
		return true
	}
	pubA, errA := substrate.DecodeAddress(a)
	pubB, errB := substrate.DecodeAddress(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(pubA, pubB)
}
