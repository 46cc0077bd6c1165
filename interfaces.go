package x402

import (
	"context"
	"time"
)

// Signer produces a signature over a prepared message. Implementations
// range from an in-process keypair to a hardware wallet or a browser
// extension bridge; callers select one at construction and never branch
// on the concrete type.
type Signer interface {
	// Address returns the signer's SS58 address.
	Address() string

	// Sign signs the message (for this protocol, a 32-byte blake2b hash)
	// and returns the raw signature bytes.
	Sign(ctx context.Context, message []byte) ([]byte, error)
}

// Clock abstracts time so claim construction and freshness checks are
// testable at exact boundaries.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock used when none is configured.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ReplayGuard reserves claim nonces so a signed claim cannot unlock more
// than one request. The protocol otherwise delegates replay protection to
// the facilitator's chain-state lookup; configure a guard when that
// guarantee cannot be assumed.
type ReplayGuard interface {
	// Reserve records the nonce until expiry. It returns false if the
	// nonce is already reserved: first use wins.
	Reserve(nonce string, expiry time.Time) bool
}

// Facilitator confirms a locally valid claim against authoritative chain
// state. A single attempt per request; the caller decides how to surface
// each outcome.
type Facilitator interface {
	Confirm(ctx context.Context, claim *PaymentClaim) FacilitatorOutcome
}
