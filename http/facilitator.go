// Package http provides the HTTP surfaces of the x402 protocol: the gate
// middleware that fronts protected resources and the facilitator gateway
// that confirms claims against chain state.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	x402 "github.com/polkax402/x402-go"
)

// FacilitatorConfig configures the facilitator gateway.
type FacilitatorConfig struct {
	// URL is the facilitator's settle endpoint.
	URL string

	// HTTPClient overrides the transport (optional).
	HTTPClient *http.Client

	// Timeout bounds a settle round-trip when no HTTPClient is given.
	// Defaults to 30s; exceeding it is a FacilitatorUnavailable outcome.
	Timeout time.Duration

	// Authorization is a static Authorization header value (optional).
	Authorization string

	// Logger for confirmation attempts (optional).
	Logger *slog.Logger
}

// FacilitatorGateway submits validated claims to an external settlement
// service over HTTP. One attempt per request, no internal retry: retrying
// here would assume the facilitator settles idempotently, which this
// design does not.
type FacilitatorGateway struct {
	url           string
	httpClient    *http.Client
	authorization string
	logger        *slog.Logger
}

var _ x402.Facilitator = (*FacilitatorGateway)(nil)

// NewFacilitatorGateway creates a gateway from config.
func NewFacilitatorGateway(cfg *FacilitatorConfig) *FacilitatorGateway {
	if cfg == nil {
		cfg = &FacilitatorConfig{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = x402.DefaultFacilitatorTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FacilitatorGateway{
		url:           cfg.URL,
		httpClient:    httpClient,
		authorization: cfg.Authorization,
		logger:        logger,
	}
}

// Confirm posts the signed claim to the settle endpoint and classifies the
// answer. Transport failures, non-2xx statuses, and unparseable bodies are
// all FacilitatorUnavailable: a dependency outage, not a payment verdict.
func (g *FacilitatorGateway) Confirm(ctx context.Context, claim *x402.PaymentClaim) x402.FacilitatorOutcome {
	unavailable := func(err error) x402.FacilitatorOutcome {
		g.logger.Warn("facilitator unavailable", "url", g.url, "error", err)
		return x402.FacilitatorOutcome{Status: x402.FacilitatorUnavailable, Err: err}
	}

	body, err := json.Marshal(claim)
	if err != nil {
		return unavailable(fmt.Errorf("failed to marshal claim: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return unavailable(fmt.Errorf("failed to create settle request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if g.authorization != "" {
		req.Header.Set("Authorization", g.authorization)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return unavailable(fmt.Errorf("settle request failed: %w", err))
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return unavailable(fmt.Errorf("failed to read settle response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return unavailable(fmt.Errorf("facilitator settle failed (%d): %s", resp.StatusCode, responseBody))
	}

	var fr x402.FacilitatorResponse
	if err := json.Unmarshal(responseBody, &fr); err != nil {
		return unavailable(fmt.Errorf("failed to decode settle response: %w", err))
	}

	if !fr.Success {
		g.logger.Info("facilitator rejected payment",
			"nonce", claim.Nonce, "error", fr.Error, "message", fr.Message)
		return x402.FacilitatorOutcome{Status: x402.FacilitatorRejected, Response: &fr}
	}

	g.logger.Info("facilitator confirmed payment",
		"nonce", claim.Nonce, "blockHash", fr.BlockHash, "extrinsicHash", fr.ExtrinsicHash)
	return x402.FacilitatorOutcome{Status: x402.FacilitatorConfirmed, Response: &fr}
}
