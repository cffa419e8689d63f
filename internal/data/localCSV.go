package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/contactkeval/option-xray/internal/logger"
)

// localFileQuoteProvider serves prices from a CSV file of ticker,price rows.
// A header row and malformed rows are skipped.
type localFileQuoteProvider struct {
	path      string
	secondary QuoteProvider

	loadOnce sync.Once
	prices   map[string]float64
	loadErr  error
}

// NewLocalFileQuoteProvider convenience constructor. The file is read lazily
// on first lookup.
func NewLocalFileQuoteProvider(path string, secondary QuoteProvider) QuoteProvider {
	return &localFileQuoteProvider{path: path, secondary: secondary}
}

// load reads the CSV once and caches it
func (p *localFileQuoteProvider) load() {
	f, err := os.Open(p.path)
	if err != nil {
		p.loadErr = fmt.Errorf("open quotes file: %w", err)
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		p.loadErr = fmt.Errorf("read quotes csv: %w", err)
		return
	}

	p.prices = make(map[string]float64, len(records))
	for _, row := range records {
		if len(row) < 2 {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(row[0]))
		price, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		p.prices[ticker] = price
	}
	logger.Debugf("loaded %d quotes from %s", len(p.prices), p.path)
}

func (p *localFileQuoteProvider) GetOptionPrice(ctx context.Context, c Contract) (float64, error) {
	p.loadOnce.Do(p.load)
	if p.loadErr != nil {
		logger.Errorf("%v", p.loadErr)
		if p.secondary != nil {
			return p.secondary.GetOptionPrice(ctx, c)
		}
		return 0, p.loadErr
	}

	if price, ok := p.prices[c.Symbol()]; ok && price > 0 {
		return price, nil
	}
	if p.secondary != nil {
		return p.secondary.GetOptionPrice(ctx, c)
	}
	return 0, fmt.Errorf("%w: %s not in %s", ErrNoQuote, c.Symbol(), p.path)
}
