// Package xray composes pricing, Greeks, implied volatility and scenario
// shocks into a single valuation with a human-readable explanation.
package xray

import (
	"errors"
	"fmt"

	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/logger"
	"github.com/contactkeval/option-xray/internal/pricing"
	"github.com/contactkeval/option-xray/internal/report"
	"github.com/contactkeval/option-xray/internal/scenario"
)

// Model selects the pricing model. Only Black-Scholes is available.
type Model string

const ModelBlackScholes Model = "bs"

var (
	// ErrUnsupportedModel is returned for any model other than "bs".
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrMissingInput is returned when neither a volatility nor a market
	// price was supplied.
	ErrMissingInput = errors.New("missing input")
)

// VolSource records where the pricing volatility came from.
type VolSource string

const (
	VolExplicit VolSource = "explicit"
	VolImplied  VolSource = "implied"
)

// Base is the unshocked valuation.
type Base struct {
	TheoPrice   float64        `json:"theo_price"`
	MarketPrice *float64       `json:"market_price"`
	ImpliedVol  *float64       `json:"implied_vol"`
	Greeks      pricing.Greeks `json:"greeks"`
	Intrinsic   float64        `json:"intrinsic"`
	Extrinsic   float64        `json:"extrinsic"`

	// Vol is the volatility every figure above was computed with.
	Vol       float64   `json:"vol"`
	VolSource VolSource `json:"vol_source"`
	// IVIterations is the solver's iteration count, 0 when no implied vol
	// was solved.
	IVIterations int `json:"iv_iterations,omitempty"`
}

// Result is the outcome of one Run.
type Result struct {
	Summary   string         `json:"summary"`
	Base      Base           `json:"base"`
	Scenarios []scenario.Row `json:"scenarios"`
}

// XRay explains the price of one option against one market observation.
type XRay struct {
	option instrument.Option
	market instrument.Market
	vol    *float64
	solver *pricing.Solver
	engine scenario.Engine
}

// Option configures an XRay.
type Option func(*XRay)

// WithVol sets an explicit pricing volatility.
func WithVol(vol float64) Option {
	return func(x *XRay) {
		x.vol = &vol
	}
}

// WithSolver replaces the default Brent implied-vol solver.
func WithSolver(s *pricing.Solver) Option {
	return func(x *XRay) {
		if s != nil {
			x.solver = s
		}
	}
}

// WithScenarioEngine sets how scenario rows are priced.
func WithScenarioEngine(e scenario.Engine) Option {
	return func(x *XRay) {
		x.engine = e
	}
}

// New builds an XRay for option priced against market.
func New(option instrument.Option, market instrument.Market, opts ...Option) *XRay {
	x := &XRay{
		option: option,
		market: market,
		solver: pricing.DefaultSolver(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run values the option under model and sweeps scenarios.
//
// Volatility resolution:
//   - no explicit vol, market price present: solve implied vol and price with it
//   - explicit vol and market price: solve implied vol for the report but
//     price with the explicit vol; the two may disagree
//   - explicit vol only: price with it, no implied vol
//   - neither: ErrMissingInput
//
// The scenario table is empty, never nil, when no scenarios are given.
func (x *XRay) Run(model Model, scenarios []scenario.Scenario) (*Result, error) {
	if model != ModelBlackScholes {
		return nil, fmt.Errorf("%w: %q, only %q is available", ErrUnsupportedModel, model, ModelBlackScholes)
	}

	marketPrice, hasMarket := x.market.Price()
	if x.vol == nil && !hasMarket {
		return nil, fmt.Errorf("%w: provide a volatility or a market price to infer implied volatility", ErrMissingInput)
	}

	var (
		implied    *float64
		iterations int
	)
	if hasMarket {
		res, err := x.solver.ImpliedVol(x.option, marketPrice)
		if err != nil {
			return nil, fmt.Errorf("implied vol: %w", err)
		}
		iv := res.ImpliedVol
		implied = &iv
		iterations = res.Iterations
	}

	vol, source := 0.0, VolImplied
	if x.vol != nil {
		vol, source = *x.vol, VolExplicit
	} else {
		vol = *implied
	}
	logger.Debugf("xray: pricing with %s vol %.6f (market=%v)", source, vol, hasMarket)

	base := Base{
		TheoPrice:    pricing.Price(x.option, vol),
		MarketPrice:  x.market.PricePtr(),
		ImpliedVol:   implied,
		Greeks:       pricing.ComputeGreeks(x.option, vol),
		Intrinsic:    pricing.Intrinsic(x.option),
		Extrinsic:    pricing.Extrinsic(x.option, vol),
		Vol:          vol,
		VolSource:    source,
		IVIterations: iterations,
	}

	rows := []scenario.Row{}
	if len(scenarios) > 0 {
		rows = x.engine.Run(x.option, vol, scenarios)
	}

	summary := report.Generate(report.Input{
		Option: report.OptionDetails{
			Spot:     x.option.Spot,
			Strike:   x.option.Strike,
			Maturity: x.option.Maturity,
			Rate:     x.option.Rate,
			Dividend: x.option.Dividend,
			Type:     string(x.option.Type),
		},
		MarketPrice: base.MarketPrice,
		TheoPrice:   base.TheoPrice,
		ImpliedVol:  base.ImpliedVol,
		Intrinsic:   base.Intrinsic,
		Extrinsic:   base.Extrinsic,
		Greeks:      base.Greeks.Map(),
		Scenarios:   rows,
	})

	return &Result{Summary: summary, Base: base, Scenarios: rows}, nil
}
