// Package data supplies observed option prices used to infer implied
// volatility.
package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/contactkeval/option-xray/internal/instrument"
)

// ErrNoQuote is returned when a provider has no usable price for a contract.
var ErrNoQuote = errors.New("no quote")

// Contract identifies a listed option.
type Contract struct {
	Underlying string
	Expiry     time.Time
	Strike     float64
	Type       instrument.OptionType
}

// Symbol returns the OCC-style ticker of c.
func (c Contract) Symbol() string {
	return OptionSymbolFromParts(c.Underlying, c.Expiry, string(c.Type), c.Strike)
}

// QuoteProvider returns the latest observed price of an option contract.
type QuoteProvider interface {
	GetOptionPrice(ctx context.Context, c Contract) (float64, error)
}

// GetQuoteProvider picks the Massive provider when an API key is available
// in MASSIVE_API_KEY or POLYGON_API_KEY, with fallback as its secondary.
// Without a key fallback is returned unchanged.
func GetQuoteProvider(apiKey string, fallback QuoteProvider) QuoteProvider {
	if apiKey == "" {
		apiKey = os.Getenv("MASSIVE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("POLYGON_API_KEY")
	}
	if apiKey == "" {
		return fallback
	}
	return NewMassiveQuoteProvider(apiKey, fallback)
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// OptionSymbolFromParts formats an OCC-like option ticker:
// O:<root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if strings.ToLower(optionType) == "put" || strings.ToLower(optionType) == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	strFmt := fmt.Sprintf("%08d", strikeInt)
	return fmt.Sprintf("O:%s%s%s%s", strings.ToUpper(underlying), expDt, optType, strFmt)
}

// YearFraction converts the time between from and expiry into years on an
// ACT/365 basis. Past expiries give a negative value, which pricing clamps.
func YearFraction(from, expiry time.Time) float64 {
	return expiry.Sub(from).Hours() / 24 / 365
}
