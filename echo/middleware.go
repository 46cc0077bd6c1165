// Package echo adapts the x402 payment gate to the Echo framework.
package echo

import (
	"github.com/labstack/echo/v4"

	x402 "github.com/polkax402/x402-go"
	x402http "github.com/polkax402/x402-go/http"
)

const contextKey = "x402.verifiedPayment"

// NewPaymentMiddleware creates an Echo middleware that requires a valid
// x402 payment before the handler runs. The gate semantics are identical
// to the net/http middleware; only the framework plumbing differs.
func NewPaymentMiddleware(cfg x402http.Config) (echo.MiddlewareFunc, error) {
	gate, err := x402http.NewGate(cfg)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			attrs := x402.PriceAttrs{Path: req.URL.Path, Query: req.URL.Query()}
			verified, denial := gate.Evaluate(req.Context(), req.Header.Get(x402.PaymentHeader), attrs)
			if denial != nil {
				return c.JSON(denial.Status, denial.Body)
			}

			c.Set(contextKey, verified)
			c.SetRequest(req.WithContext(x402.WithVerifiedPayment(req.Context(), verified)))
			return next(c)
		}
	}, nil
}

// VerifiedPaymentFromContext returns the verified payment stored by the
// middleware, or nil when the request was not gated.
func VerifiedPaymentFromContext(c echo.Context) *x402.VerifiedPayment {
	if vp, ok := c.Get(contextKey).(*x402.VerifiedPayment); ok {
		return vp
	}
	return nil
}
