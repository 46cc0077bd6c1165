package x402

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// PaymentRequirements is one acceptable payment option, carried in the
// "accepts" array of a 402 body. Immutable once issued; the server
// regenerates it per request (the amount may depend on request parameters).
type PaymentRequirements struct {
	// Scheme is the payment scheme identifier. Always "exact" here.
	Scheme string `json:"scheme"`

	// Network is the chain identifier the payment must settle on.
	Network string `json:"network"`

	// PayTo is the recipient address (SS58).
	PayTo string `json:"payTo"`

	// Asset is the payment token contract address (SS58).
	Asset string `json:"asset"`

	// MaxAmountRequired is the price in smallest units, as a decimal string.
	// Never a float: amounts routinely exceed 64 bits.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Resource identifies what is being purchased (URL or path).
	Resource string `json:"resource"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// MimeType is the content type of the protected resource.
	MimeType string `json:"mimeType,omitempty"`

	// MaxTimeoutSeconds is the validity period the server suggests.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`
}

// RequiredUnits parses MaxAmountRequired as an arbitrary-precision integer.
func (r *PaymentRequirements) RequiredUnits() (*big.Int, error) {
	return parseUnits(r.MaxAmountRequired)
}

// PaymentRequired is the 402 response body.
type PaymentRequired struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error,omitempty"`
	Code        string                `json:"code,omitempty"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// PaymentClaim is a client-signed assertion of payment terms, submitted in
// the X-Payment header to unlock a resource.
//
// The signature covers {From, To, Amount, Nonce, ValidUntil} in that fixed
// order (see the substrate package); Asset, Network, Resource and Timestamp
// are transport metadata by design of the on-chain verifier's wire format.
type PaymentClaim struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	Asset      string `json:"asset"`
	Network    string `json:"network"`
	Resource   string `json:"resource"`
	Nonce      string `json:"nonce"`
	Timestamp  int64  `json:"timestamp"`
	ValidUntil int64  `json:"validUntil"`
	Signature  string `json:"signature,omitempty"`
}

// AmountUnits parses the claim's amount as an arbitrary-precision integer.
func (c *PaymentClaim) AmountUnits() (*big.Int, error) {
	return parseUnits(c.Amount)
}

// EncodeHeader serializes the claim for the X-Payment request header.
func (c *PaymentClaim) EncodeHeader() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment claim: %w", err)
	}
	return string(data), nil
}

// DecodePaymentHeader parses an X-Payment header value into a claim.
// A parse failure here is a client bug (400), not a missing payment (402).
func DecodePaymentHeader(header string) (*PaymentClaim, error) {
	if header == "" {
		return nil, fmt.Errorf("payment header is empty")
	}

	var claim PaymentClaim
	if err := json.Unmarshal([]byte(header), &claim); err != nil {
		return nil, fmt.Errorf("invalid payment header: not valid JSON: %w", err)
	}

	return &claim, nil
}

// FacilitatorResponse is the settle endpoint's answer. Produced once per
// facilitator call; never retried internally.
type FacilitatorResponse struct {
	Success       bool   `json:"success"`
	BlockHash     string `json:"blockHash,omitempty"`
	ExtrinsicHash string `json:"extrinsicHash,omitempty"`
	Error         string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
}

// UnmarshalJSON accepts "ok" as an alias for "success"; deployed
// facilitators emit either.
func (r *FacilitatorResponse) UnmarshalJSON(data []byte) error {
	type alias FacilitatorResponse
	aux := struct {
		*alias
		OK bool `json:"ok"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Success = r.Success || aux.OK
	return nil
}

// VerifiedPayment is attached to a request after the gate accepts its claim.
// Created once per accepted request, read-only, never persisted.
type VerifiedPayment struct {
	// Claim is the signed claim that unlocked the request.
	Claim *PaymentClaim `json:"claim"`

	// ConfirmedOnChain reports whether a facilitator confirmed settlement.
	// False when policy skipped facilitator confirmation.
	ConfirmedOnChain bool `json:"confirmedOnChain"`

	// FacilitatorResponse is the raw facilitator answer, when one was made.
	FacilitatorResponse *FacilitatorResponse `json:"facilitatorResponse,omitempty"`

	// VerifiedAt is when the gate accepted the claim.
	VerifiedAt time.Time `json:"verifiedAt"`
}

// FacilitatorStatus classifies the outcome of a confirmation attempt.
type FacilitatorStatus int

const (
	// FacilitatorConfirmed: the facilitator settled the payment on chain.
	FacilitatorConfirmed FacilitatorStatus = iota

	// FacilitatorRejected: a well-formed "payment invalid" answer
	// (success=false). A client problem, surfaced as 402.
	FacilitatorRejected

	// FacilitatorUnavailable: transport failure, non-2xx status, or an
	// unparseable body. A dependency outage, surfaced as 503, never
	// conflated with "payment was bad".
	FacilitatorUnavailable
)

// FacilitatorOutcome is the result of a single confirmation attempt.
type FacilitatorOutcome struct {
	Status   FacilitatorStatus
	Response *FacilitatorResponse // nil when unavailable
	Err      error                // transport detail when unavailable
}

func parseUnits(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("amount is not a base-10 integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount is negative: %q", s)
	}
	return v, nil
}
