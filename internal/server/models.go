package server

import (
	"fmt"

	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/pricing"
	"github.com/contactkeval/option-xray/internal/scenario"
)

// OptionRequest is the wire form of an option contract.
type OptionRequest struct {
	Spot     float64 `json:"spot" binding:"gt=0"`
	Strike   float64 `json:"strike" binding:"gt=0"`
	Maturity float64 `json:"maturity"`
	Rate     float64 `json:"rate"`
	Dividend float64 `json:"dividend"`
	Type     string  `json:"type" binding:"required"`
}

// toOption converts the request, rejecting unknown option types.
func (r OptionRequest) toOption() (instrument.Option, error) {
	typ, err := instrument.ParseOptionType(r.Type)
	if err != nil {
		return instrument.Option{}, fmt.Errorf("%w: %v", pricing.ErrInvalidInput, err)
	}
	return instrument.Option{
		Spot:     r.Spot,
		Strike:   r.Strike,
		Maturity: r.Maturity,
		Rate:     r.Rate,
		Dividend: r.Dividend,
		Type:     typ,
	}, nil
}

// QuoteRequest asks the server to look up the market price of a listed
// contract instead of supplying it. Expiry is YYYY-MM-DD.
type QuoteRequest struct {
	Underlying string `json:"underlying" binding:"required"`
	Expiry     string `json:"expiry" binding:"required"`
}

// XRayRequest is the body of POST /v1/xray.
type XRayRequest struct {
	Option           OptionRequest       `json:"option" binding:"required"`
	MarketPrice      *float64            `json:"market_price"`
	Vol              *float64            `json:"vol"`
	Model            string              `json:"model"`
	Scenarios        []scenario.Scenario `json:"scenarios"`
	DefaultScenarios bool                `json:"default_scenarios"`
	Quote            *QuoteRequest       `json:"quote"`
}

// PriceRequest is the body of POST /v1/price and POST /v1/greeks.
type PriceRequest struct {
	Option OptionRequest `json:"option" binding:"required"`
	Vol    *float64      `json:"vol" binding:"required"`
}

// PriceResponse is returned by POST /v1/price.
type PriceResponse struct {
	Price     float64 `json:"price"`
	Intrinsic float64 `json:"intrinsic"`
	Extrinsic float64 `json:"extrinsic"`
}

// ImpliedVolRequest is the body of POST /v1/implied-vol.
type ImpliedVolRequest struct {
	Option      OptionRequest `json:"option" binding:"required"`
	MarketPrice float64       `json:"market_price"`
}

// ScenariosRequest is the body of POST /v1/scenarios.
type ScenariosRequest struct {
	Option    OptionRequest       `json:"option" binding:"required"`
	Vol       *float64            `json:"vol" binding:"required"`
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// ScenariosResponse carries rows in input order and ranked by |P&L|.
type ScenariosResponse struct {
	Rows   []scenario.Row `json:"rows"`
	Ranked []scenario.Row `json:"ranked"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
