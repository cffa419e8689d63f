package pricing

import (
	"math"

	"github.com/contactkeval/option-xray/internal/instrument"
)

// Greeks holds the first-order analytic sensitivities of a Black-Scholes
// price.
//
// Theta is the raw derivative with respect to time in years; converting it
// to a per-day figure is left to whoever presents it.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Map returns the Greeks keyed by their lowercase names.
func (g Greeks) Map() map[string]float64 {
	return map[string]float64{
		"delta": g.Delta,
		"gamma": g.Gamma,
		"vega":  g.Vega,
		"theta": g.Theta,
		"rho":   g.Rho,
	}
}

// ComputeGreeks calculates delta, gamma, vega, theta and rho for a European
// option with a continuous dividend yield.
//
// Maturity and vol are clamped exactly as in Price and d1/d2 come from the
// same helper, so the sensitivities are consistent with the price.
func ComputeGreeks(o instrument.Option, vol float64) Greeks {
	t, sigma := clampInputs(o, vol)
	sqrtT := math.Sqrt(t)
	dfR := math.Exp(-o.Rate * t)
	dfQ := math.Exp(-o.Dividend * t)
	d1, d2 := d1d2(o, t, sigma)
	pdf := normPDF(d1)

	g := Greeks{
		Gamma: dfQ * pdf / (o.Spot * sigma * sqrtT),
		Vega:  o.Spot * dfQ * pdf * sqrtT,
	}

	decay := -(o.Spot * dfQ * pdf * sigma) / (2 * sqrtT)
	if o.IsCall() {
		g.Delta = dfQ * normCDF(d1)
		g.Theta = decay - o.Rate*o.Strike*dfR*normCDF(d2) + o.Dividend*o.Spot*dfQ*normCDF(d1)
		g.Rho = o.Strike * t * dfR * normCDF(d2)
	} else {
		g.Delta = dfQ * (normCDF(d1) - 1)
		g.Theta = decay + o.Rate*o.Strike*dfR*normCDF(-d2) - o.Dividend*o.Spot*dfQ*normCDF(-d1)
		g.Rho = -o.Strike * t * dfR * normCDF(-d2)
	}
	return g
}
