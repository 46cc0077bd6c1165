package client

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	x402 "github.com/polkax402/x402-go"
)

// Client wraps an *http.Client with automatic payment handling: when a
// request comes back 402 it reads the first accepts entry, builds and
// signs a matching claim, and retries the request once with the X-Payment
// header attached.
type Client struct {
	base      *http.Client
	signer    x402.Signer
	maxAmount *big.Int
	validity  time.Duration
	clock     x402.Clock
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxAmount caps how much a single request may cost, in smallest
// units. Requirements above the cap fail with ErrAmountExceeded instead
// of paying.
func WithMaxAmount(limit *big.Int) Option {
	return func(c *Client) { c.maxAmount = limit }
}

// WithValidityWindow sets the claim lifetime requested per payment.
func WithValidityWindow(d time.Duration) Option {
	return func(c *Client) { c.validity = d }
}

// WithClock injects the clock used for claim timestamps.
func WithClock(clock x402.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the logger for payment attempts.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a paying client around base. A nil base uses
// http.DefaultClient.
func New(base *http.Client, signer x402.Signer, opts ...Option) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	c := &Client{
		base:     base,
		signer:   signer,
		validity: x402.DefaultValidityWindow,
		clock:    x402.SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request, paying once if the server demands it.
// The request body, if any, must be replayable via GetBody; requests built
// with http.NewRequest from a *bytes.Buffer, *bytes.Reader, or
// *strings.Reader already are.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	terms, err := decodeTerms(resp)
	if err != nil {
		return nil, err
	}

	amount, err := terms.RequiredUnits()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrNoTermsOffered, err)
	}
	if c.maxAmount != nil && amount.Cmp(c.maxAmount) > 0 {
		return nil, fmt.Errorf("%w: %s requires %s, limit is %s",
			x402.ErrAmountExceeded, terms.Resource, terms.MaxAmountRequired, c.maxAmount)
	}

	claim, err := BuildClaim(terms, c.signer.Address(), c.validity, c.clock)
	if err != nil {
		return nil, err
	}
	signed, err := SignClaim(req.Context(), claim, c.signer)
	if err != nil {
		return nil, err
	}
	header, err := signed.EncodeHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrEncodingFailed, err)
	}

	c.logger.Debug("retrying request with payment",
		"resource", terms.Resource,
		"amount", terms.MaxAmountRequired,
		"network", terms.Network)

	retry, err := replayableRequest(req)
	if err != nil {
		return nil, err
	}
	retry.Header.Set(x402.PaymentHeader, header)

	return c.base.Do(retry)
}

// Get performs a GET with automatic payment handling.
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// decodeTerms reads the first accepts entry out of a 402 body and drains
// the response so the connection can be reused.
func decodeTerms(resp *http.Response) (*x402.PaymentRequirements, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading 402 body: %v", x402.ErrNoTermsOffered, err)
	}

	var required x402.PaymentRequired
	if err := json.Unmarshal(body, &required); err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrNoTermsOffered, err)
	}
	if len(required.Accepts) == 0 {
		return nil, x402.ErrNoTermsOffered
	}

	terms := required.Accepts[0]
	if terms.Scheme != x402.SchemeExact {
		return nil, fmt.Errorf("%w: unsupported scheme %q", x402.ErrNoTermsOffered, terms.Scheme)
	}
	return &terms, nil
}

// replayableRequest clones req with a fresh body for the paid retry.
func replayableRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("x402: request body is not replayable for paid retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}
