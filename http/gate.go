package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	x402 "github.com/polkax402/x402-go"
	"github.com/polkax402/x402-go/substrate"
)

// Config configures a payment gate. Network, RecipientAddress, Asset and
// Price are required; everything else has a usable default.
type Config struct {
	// Network is the chain identifier payments must name, e.g. "polkadot".
	Network string

	// RecipientAddress is the SS58 address payments must be made out to.
	RecipientAddress string

	// Asset is the asset identifier payments must name.
	Asset string

	// Price is the cost of the protected resource, fixed or computed
	// per request.
	Price x402.Price

	// FacilitatorURL is the settle endpoint used to confirm claims
	// on chain. Ignored when Facilitator is set. When both are empty
	// the gate runs in verify-only mode and accepts well-formed
	// claims without chain confirmation.
	FacilitatorURL string

	// Facilitator overrides the HTTP gateway built from FacilitatorURL.
	Facilitator x402.Facilitator

	// RequireFacilitatorConfirmation makes construction fail unless a
	// facilitator is configured, guarding against a gate silently
	// running verify-only in production. The flag gates construction,
	// not per-request skipping: a configured facilitator is always
	// consulted, so leave FacilitatorURL and Facilitator empty to run
	// verify-only.
	RequireFacilitatorConfirmation bool

	// MaxPaymentAge bounds how old a claim timestamp may be.
	// Defaults to 5 minutes.
	MaxPaymentAge time.Duration

	// ResourceDescription appears in offered payment terms (optional).
	ResourceDescription string

	// ResponseMimeType appears in offered payment terms (optional).
	ResponseMimeType string

	// MaxTimeoutSeconds appears in offered payment terms.
	// Defaults to 300.
	MaxTimeoutSeconds int

	// ReplayGuard reserves nonces so a signed claim cannot be spent
	// twice against this gate (optional).
	ReplayGuard x402.ReplayGuard

	// Clock supplies the current time (optional, for tests).
	Clock x402.Clock

	// Logger for gate decisions (optional).
	Logger *slog.Logger
}

// GateDenial is a refusal to serve the resource: the HTTP status to send
// and the JSON body explaining it.
type GateDenial struct {
	Status int
	Body   map[string]any
}

// Gate is the framework-neutral payment state machine. The net/http
// middleware and the gin and echo adapters all delegate to it, so every
// transport enforces identical semantics.
type Gate struct {
	cfg         Config
	facilitator x402.Facilitator
	policy      x402.ValidationPolicy
	clock       x402.Clock
	logger      *slog.Logger
}

// NewGate validates the config and builds a gate.
func NewGate(cfg Config) (*Gate, error) {
	if cfg.Network == "" {
		return nil, fmt.Errorf("network is required")
	}
	if cfg.RecipientAddress == "" {
		return nil, fmt.Errorf("recipient address is required")
	}
	if _, err := substrate.DecodeAddress(cfg.RecipientAddress); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", cfg.RecipientAddress, err)
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("asset is required")
	}
	if cfg.Price == nil {
		return nil, fmt.Errorf("price is required")
	}
	if cfg.MaxTimeoutSeconds == 0 {
		cfg.MaxTimeoutSeconds = x402.DefaultMaxTimeoutSeconds
	}

	facilitator := cfg.Facilitator
	if facilitator == nil && cfg.FacilitatorURL != "" {
		facilitator = NewFacilitatorGateway(&FacilitatorConfig{
			URL:    cfg.FacilitatorURL,
			Logger: cfg.Logger,
		})
	}
	if cfg.RequireFacilitatorConfirmation && facilitator == nil {
		return nil, fmt.Errorf("facilitator confirmation required but none configured")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = x402.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gate{
		cfg:         cfg,
		facilitator: facilitator,
		policy:      x402.ValidationPolicy{MaxPaymentAge: cfg.MaxPaymentAge},
		clock:       clock,
		logger:      logger,
	}, nil
}

// Requirements resolves the price for the request and builds the payment
// terms to offer in a 402 response.
func (g *Gate) Requirements(attrs x402.PriceAttrs) (*x402.PaymentRequirements, error) {
	units, err := x402.ResolvePrice(g.cfg.Price, attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price: %w", err)
	}
	return &x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           g.cfg.Network,
		PayTo:             g.cfg.RecipientAddress,
		Asset:             g.cfg.Asset,
		MaxAmountRequired: units.String(),
		Resource:          attrs.Path,
		Description:       g.cfg.ResourceDescription,
		MimeType:          g.cfg.ResponseMimeType,
		MaxTimeoutSeconds: g.cfg.MaxTimeoutSeconds,
	}, nil
}

// Evaluate runs the full gate decision for one request. A nil denial
// means the payment is accepted and the resource may be served.
func (g *Gate) Evaluate(ctx context.Context, header string, attrs x402.PriceAttrs) (*x402.VerifiedPayment, *GateDenial) {
	req, err := g.Requirements(attrs)
	if err != nil {
		g.logger.Error("price resolution failed", "path", attrs.Path, "error", err)
		return nil, internalDenial()
	}

	if header == "" {
		return nil, g.paymentRequired(req, x402.NewPaymentError(x402.ErrCodeMissingPayment, "payment required"))
	}

	claim, err := x402.DecodePaymentHeader(header)
	if err != nil {
		g.logger.Info("malformed payment header", "path", attrs.Path, "error", err)
		return nil, &GateDenial{
			Status: http.StatusBadRequest,
			Body: map[string]any{
				"x402Version": x402.X402Version,
				"error":       "malformed payment header",
				"code":        x402.ErrCodeMalformedPayment,
			},
		}
	}

	now := g.clock.Now()
	if rej := x402.ValidateClaim(claim, req, g.policy, now); rej != nil {
		g.logger.Info("payment rejected",
			"path", attrs.Path, "code", rej.Code, "reason", rej.Reason, "nonce", claim.Nonce)
		perr := x402.NewPaymentError(rej.Code, rej.Reason)
		for k, v := range rej.Details {
			perr = perr.WithDetail(k, v)
		}
		denial := g.paymentRequired(req, perr)
		// Echo the claim so a paying client can see which term mismatched.
		denial.Body["claim"] = claim
		return nil, denial
	}

	if g.cfg.ReplayGuard != nil {
		expiry := time.UnixMilli(claim.ValidUntil)
		if !g.cfg.ReplayGuard.Reserve(claim.Nonce, expiry) {
			g.logger.Warn("payment nonce reused", "path", attrs.Path, "nonce", claim.Nonce)
			return nil, g.paymentRequired(req, x402.NewPaymentError(x402.ErrCodeNonceReused, "payment nonce already used"))
		}
	}

	verified := &x402.VerifiedPayment{
		Claim:      claim,
		VerifiedAt: now,
	}

	if g.facilitator == nil {
		g.logger.Info("payment accepted without confirmation",
			"path", attrs.Path, "from", claim.From, "amount", claim.Amount, "nonce", claim.Nonce)
		return verified, nil
	}

	outcome := g.facilitator.Confirm(ctx, claim)
	switch outcome.Status {
	case x402.FacilitatorConfirmed:
		verified.ConfirmedOnChain = true
		verified.FacilitatorResponse = outcome.Response
		g.logger.Info("payment confirmed",
			"path", attrs.Path, "from", claim.From, "amount", claim.Amount, "nonce", claim.Nonce)
		return verified, nil

	case x402.FacilitatorRejected:
		denial := g.paymentRequired(req, x402.NewPaymentError(x402.ErrCodeFacilitatorRejected, "payment rejected by facilitator"))
		if outcome.Response != nil {
			denial.Body["facilitatorResponse"] = outcome.Response
		}
		return nil, denial

	default:
		// A 503 invites the client to retry with the same claim, so the
		// nonce reservation must not outlive this attempt.
		if guard, ok := g.cfg.ReplayGuard.(interface{ Release(nonce string) }); ok {
			guard.Release(claim.Nonce)
		}
		return nil, &GateDenial{
			Status: http.StatusServiceUnavailable,
			Body: map[string]any{
				"x402Version": x402.X402Version,
				"error":       "payment facilitator unavailable",
				"code":        x402.ErrCodeFacilitatorUnavailable,
			},
		}
	}
}

func (g *Gate) paymentRequired(req *x402.PaymentRequirements, perr *x402.PaymentError) *GateDenial {
	body := map[string]any{
		"x402Version": x402.X402Version,
		"error":       perr.Message,
		"code":        perr.Code,
		"accepts":     []*x402.PaymentRequirements{req},
	}
	if len(perr.Details) > 0 {
		body["details"] = perr.Details
	}
	return &GateDenial{Status: http.StatusPaymentRequired, Body: body}
}

func internalDenial() *GateDenial {
	return &GateDenial{
		Status: http.StatusInternalServerError,
		Body: map[string]any{
			"error": "internal server error",
			"code":  x402.ErrCodeInternal,
		},
	}
}
