package x402

import (
	"fmt"
	"math/big"
	"net/url"
)

// PriceAttrs is the explicit set of request attributes a price function may
// read. Keeping the surface this small makes dynamic pricing testable in
// isolation from any HTTP framework.
type PriceAttrs struct {
	// Path is the request path being purchased.
	Path string

	// Query holds the request's query parameters.
	Query url.Values
}

// Price is either a fixed amount or a pure function of request attributes.
// The two variants are FixedPrice and DynamicPrice; nothing else satisfies
// the interface.
type Price interface {
	amount(attrs PriceAttrs) (*big.Int, error)
}

// FixedPrice charges the same amount for every request.
type FixedPrice struct {
	Units *big.Int
}

// NewFixedPrice parses a smallest-unit decimal string into a FixedPrice.
func NewFixedPrice(units string) (FixedPrice, error) {
	v, err := parseUnits(units)
	if err != nil {
		return FixedPrice{}, fmt.Errorf("invalid price: %w", err)
	}
	return FixedPrice{Units: v}, nil
}

// MustFixedPrice is NewFixedPrice that panics on a bad literal.
func MustFixedPrice(units string) FixedPrice {
	p, err := NewFixedPrice(units)
	if err != nil {
		panic(err)
	}
	return p
}

func (p FixedPrice) amount(PriceAttrs) (*big.Int, error) {
	if p.Units == nil {
		return nil, fmt.Errorf("fixed price has no amount")
	}
	return p.Units, nil
}

// DynamicPrice computes the amount from request attributes, for example
// scaling linearly with a declared complexity parameter.
type DynamicPrice struct {
	Compute func(attrs PriceAttrs) *big.Int
}

func (p DynamicPrice) amount(attrs PriceAttrs) (*big.Int, error) {
	if p.Compute == nil {
		return nil, fmt.Errorf("dynamic price has no compute function")
	}
	v := p.Compute(attrs)
	if v == nil || v.Sign() < 0 {
		return nil, fmt.Errorf("dynamic price returned an invalid amount")
	}
	return v, nil
}

// ResolvePrice evaluates a price against request attributes.
func ResolvePrice(p Price, attrs PriceAttrs) (*big.Int, error) {
	if p == nil {
		return nil, fmt.Errorf("no price configured")
	}
	return p.amount(attrs)
}
