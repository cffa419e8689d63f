package data

import (
	"context"
	"fmt"
)

// staticQuoteProvider serves prices from a fixed table keyed by OCC ticker.
// Useful offline and in tests.
type staticQuoteProvider struct {
	prices    map[string]float64
	secondary QuoteProvider
}

// NewStaticQuoteProvider copies prices, keyed by Contract.Symbol(), into a
// provider. secondary may be nil.
func NewStaticQuoteProvider(prices map[string]float64, secondary QuoteProvider) QuoteProvider {
	table := make(map[string]float64, len(prices))
	for k, v := range prices {
		table[k] = v
	}
	return &staticQuoteProvider{prices: table, secondary: secondary}
}

func (p *staticQuoteProvider) GetOptionPrice(ctx context.Context, c Contract) (float64, error) {
	if price, ok := p.prices[c.Symbol()]; ok && price > 0 {
		return price, nil
	}
	if p.secondary != nil {
		return p.secondary.GetOptionPrice(ctx, c)
	}
	return 0, fmt.Errorf("%w: %s not in static table", ErrNoQuote, c.Symbol())
}
