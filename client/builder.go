// Package client builds, signs, and submits payment claims: the buyer side
// of the x402 protocol.
package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	x402 "github.com/polkax402/x402-go"
	"github.com/polkax402/x402-go/substrate"
)

// BuildClaim turns a server-issued payment requirement into an unsigned
// claim. The recipient, amount, asset, network, and resource are echoed
// from the requirement verbatim: the client accepts server-set terms, it
// does not renegotiate them. The nonce is a fresh UUID, so claims are
// practically unique per build.
func BuildClaim(req *x402.PaymentRequirements, sender string, validity time.Duration, clock x402.Clock) (*x402.PaymentClaim, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: no payment requirement", x402.ErrEncodingFailed)
	}
	if _, err := substrate.DecodeAddress(sender); err != nil {
		return nil, fmt.Errorf("%w: sender: %v", x402.ErrEncodingFailed, err)
	}
	if clock == nil {
		clock = x402.SystemClock{}
	}
	if validity <= 0 {
		validity = x402.DefaultValidityWindow
	}

	now := clock.Now().UnixMilli()
	return &x402.PaymentClaim{
		From:       sender,
		To:         req.PayTo,
		Amount:     req.MaxAmountRequired,
		Asset:      req.Asset,
		Network:    req.Network,
		Resource:   req.Resource,
		Nonce:      uuid.NewString(),
		Timestamp:  now,
		ValidUntil: now + validity.Milliseconds(),
	}, nil
}

// SignClaim encodes the claim's signing bytes, hashes them, asks the
// signer for a signature over the hash, and returns a copy of the claim
// with the hex signature attached. Signer refusal (a user rejecting the
// prompt, an unreachable extension) surfaces as ErrSigningFailed.
func SignClaim(ctx context.Context, claim *x402.PaymentClaim, signer x402.Signer) (*x402.PaymentClaim, error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: no signer", x402.ErrSigningFailed)
	}

	amount, err := claim.AmountUnits()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrEncodingFailed, err)
	}

	hash, err := substrate.SigningHash(claim.From, claim.To, amount, claim.Nonce, claim.ValidUntil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrEncodingFailed, err)
	}

	sig, err := signer.Sign(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrSigningFailed, err)
	}

	signed := *claim
	signed.Signature = "0x" + hex.EncodeToString(sig)
	return &signed, nil
}
