// Package gin adapts the x402 payment gate to the Gin framework.
package gin

import (
	"github.com/gin-gonic/gin"

	x402 "github.com/polkax402/x402-go"
	x402http "github.com/polkax402/x402-go/http"
)

const contextKey = "x402.verifiedPayment"

// NewPaymentMiddleware creates a Gin middleware that requires a valid x402
// payment before the handler chain continues. The gate semantics are
// identical to the net/http middleware; only the framework plumbing differs.
func NewPaymentMiddleware(cfg x402http.Config) (gin.HandlerFunc, error) {
	gate, err := x402http.NewGate(cfg)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		attrs := x402.PriceAttrs{Path: c.Request.URL.Path, Query: c.Request.URL.Query()}
		verified, denial := gate.Evaluate(c.Request.Context(), c.GetHeader(x402.PaymentHeader), attrs)
		if denial != nil {
			c.AbortWithStatusJSON(denial.Status, denial.Body)
			return
		}

		c.Set(contextKey, verified)
		c.Request = c.Request.WithContext(x402.WithVerifiedPayment(c.Request.Context(), verified))
		c.Next()
	}, nil
}

// VerifiedPaymentFromContext returns the verified payment stored by the
// middleware, or nil when the request was not gated.
func VerifiedPaymentFromContext(c *gin.Context) *x402.VerifiedPayment {
	if v, ok := c.Get(contextKey); ok {
		if vp, ok := v.(*x402.VerifiedPayment); ok {
			return vp
		}
	}
	return nil
}
