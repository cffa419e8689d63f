package data

// This file contains a Massive-backed QuoteProvider. Massive (formerly
// Polygon.io) serves the last trade of an option contract keyed by its OCC
// ticker.

import (
	"context"
	"fmt"

	massive "github.com/massive-com/client-go/v2/rest"
	"github.com/massive-com/client-go/v2/rest/models"

	"github.com/contactkeval/option-xray/internal/logger"
)

// lastTradeClient is the subset of the Massive REST client used here.
type lastTradeClient interface {
	GetLastTrade(ctx context.Context, params *models.GetLastTradeParams, options ...models.RequestOption) (*models.GetLastTradeResponse, error)
}

// massiveQuoteProvider implements QuoteProvider using Massive APIs.
type massiveQuoteProvider struct {
	client lastTradeClient

	// secondary is an optional fallback provider.
	secondary QuoteProvider
}

// NewMassiveQuoteProvider constructs a Massive-backed quote provider.
//
// Parameters:
//   - apiKey: Massive API key for authentication
//   - secondary: consulted when Massive fails or has no trade; may be nil
func NewMassiveQuoteProvider(apiKey string, secondary QuoteProvider) QuoteProvider {
	return &massiveQuoteProvider{client: massive.New(apiKey), secondary: secondary}
}

// GetOptionPrice returns the last traded price of c.
func (p *massiveQuoteProvider) GetOptionPrice(ctx context.Context, c Contract) (float64, error) {
	ticker := c.Symbol()
	logger.Debugf("fetching last trade: %s", ticker)

	res, err := p.client.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: ticker})
	if err != nil {
		logger.Errorf("massive last trade request failed ticker=%s err=%v", ticker, err)
		return p.fallback(ctx, c, fmt.Errorf("massive last trade %s: %w", ticker, err))
	}

	price := res.Results.Price
	if price <= 0 {
		return p.fallback(ctx, c, fmt.Errorf("%w: massive has no trade for %s", ErrNoQuote, ticker))
	}

	logger.Tracef("last trade %s price=%f", ticker, price)
	return price, nil
}

func (p *massiveQuoteProvider) fallback(ctx context.Context, c Contract, cause error) (float64, error) {
	if p.secondary == nil {
		return 0, cause
	}
	logger.Debugf("falling back to secondary provider: %v", cause)
	return p.secondary.GetOptionPrice(ctx, c)
}
