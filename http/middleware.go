package http

import (
	"encoding/json"
	"net/http"

	x402 "github.com/polkax402/x402-go"
)

// NewPaymentMiddleware creates a net/http middleware that requires a valid
// x402 payment before calling the wrapped handler. On success the verified
// payment is stored on the request context and retrievable with
// x402.VerifiedPaymentFromContext.
func NewPaymentMiddleware(cfg Config) (func(http.Handler) http.Handler, error) {
	gate, err := NewGate(cfg)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					gate.logger.Error("panic in payment gate", "path", r.URL.Path, "panic", rec)
					denial := internalDenial()
					writeJSON(w, denial.Status, denial.Body)
				}
			}()

			attrs := x402.PriceAttrs{Path: r.URL.Path, Query: r.URL.Query()}
			verified, denial := gate.Evaluate(r.Context(), r.Header.Get(x402.PaymentHeader), attrs)
			if denial != nil {
				writeJSON(w, denial.Status, denial.Body)
				return
			}

			ctx := x402.WithVerifiedPayment(r.Context(), verified)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
