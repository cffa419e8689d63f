// Package instrument holds the value types describing an option contract
// and a market observation of it.
//
// Values are passed and stored by value. A shocked or otherwise modified
// contract is always a new Option; nothing in this module edits an Option
// in place.
package instrument

import (
	"fmt"
	"strings"
)

// OptionType is the exercise right of a vanilla European option.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call", "put", "c" or "p" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("unknown option type %q", s)
}

// Option describes a vanilla European option contract together with the
// market inputs needed to price it.
//
// Construction performs no validation. Maturity may be zero or negative;
// the pricing code clamps it to a small positive floor.
type Option struct {
	Spot     float64    `json:"spot" yaml:"spot"`         // underlying price
	Strike   float64    `json:"strike" yaml:"strike"`     // strike price
	Maturity float64    `json:"maturity" yaml:"maturity"` // time to expiry in years
	Rate     float64    `json:"rate" yaml:"rate"`         // continuously compounded risk-free rate
	Dividend float64    `json:"dividend" yaml:"dividend"` // continuous dividend / carry yield
	Type     OptionType `json:"type" yaml:"type"`
}

// IsCall reports whether o is a call. Anything that is not a call prices as
// a put.
func (o Option) IsCall() bool {
	return o.Type == Call
}

// Market is an optional observation of the option's traded price.
// The zero value means no price was observed.
type Market struct {
	price    float64
	observed bool
}

// NewMarket records an observed market price.
func NewMarket(price float64) Market {
	return Market{price: price, observed: true}
}

// Price returns the observed price and whether one was recorded.
func (m Market) Price() (float64, bool) {
	return m.price, m.observed
}

// PricePtr returns the observed price as a pointer, nil when absent.
// Convenient for JSON payloads where absence is encoded as null.
func (m Market) PricePtr() *float64 {
	if !m.observed {
		return nil
	}
	p := m.price
	return &p
}
