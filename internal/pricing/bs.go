// Package pricing implements closed-form Black-Scholes valuation of European
// options with a continuous dividend yield, the analytic Greeks, and an
// implied volatility solver built on top of them.
//
// Every function here is total over its inputs: maturity and volatility are
// clamped to a tiny positive floor instead of being rejected, so callers
// sweeping parameters toward zero (scenario shocks, root finding) never see
// a failure from the pricer itself.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/contactkeval/option-xray/internal/instrument"
)

// Epsilon is the floor applied to maturity and volatility before they enter
// the closed form.
const Epsilon = 1e-12

// clampInputs returns the maturity and volatility actually used by the
// closed form. Price and ComputeGreeks both go through here.
func clampInputs(o instrument.Option, vol float64) (t, sigma float64) {
	return math.Max(o.Maturity, Epsilon), math.Max(vol, Epsilon)
}

// d1d2 computes the Black-Scholes d1 and d2 terms from already clamped
// maturity t and volatility sigma. The forward is floored at Epsilon so a
// degenerate spot cannot produce log(0).
func d1d2(o instrument.Option, t, sigma float64) (d1, d2 float64) {
	fwd := o.Spot * math.Exp((o.Rate-o.Dividend)*t)
	logFK := math.Log(math.Max(fwd, Epsilon) / o.Strike)
	volSqrt := sigma * math.Sqrt(t)
	d1 = (logFK + 0.5*sigma*sigma*t) / volSqrt
	d2 = d1 - volSqrt
	return d1, d2
}

// Price calculates the Black-Scholes value of a European option paying a
// continuous dividend yield.
//
// Parameters:
//   - o: contract and market inputs (spot, strike, maturity, rate, dividend, type)
//   - vol: annualized volatility as a decimal
//
// Returns:
//
//	The theoretical price, never negative. With vol at or below Epsilon the
//	discounted intrinsic value of the forward is returned instead of
//	evaluating d1/d2, which would be 0/0 at the money.
func Price(o instrument.Option, vol float64) float64 {
	t := math.Max(o.Maturity, Epsilon)
	dfR := math.Exp(-o.Rate * t)
	dfQ := math.Exp(-o.Dividend * t)

	if vol <= Epsilon {
		forward := o.Spot * dfQ / dfR
		if o.IsCall() {
			return dfR * math.Max(forward-o.Strike, 0)
		}
		return dfR * math.Max(o.Strike-forward, 0)
	}

	t, sigma := clampInputs(o, vol)
	d1, d2 := d1d2(o, t, sigma)

	if o.IsCall() {
		return o.Spot*dfQ*normCDF(d1) - o.Strike*dfR*normCDF(d2)
	}
	return o.Strike*dfR*normCDF(-d2) - o.Spot*dfQ*normCDF(-d1)
}

// Intrinsic returns the payoff if exercised now, using the raw spot and
// strike.
func Intrinsic(o instrument.Option) float64 {
	if o.IsCall() {
		return math.Max(o.Spot-o.Strike, 0)
	}
	return math.Max(o.Strike-o.Spot, 0)
}

// Extrinsic returns the time value: model price less intrinsic value,
// floored at zero to absorb rounding noise deep in the money near expiry.
func Extrinsic(o instrument.Option, vol float64) float64 {
	return math.Max(Price(o, vol)-Intrinsic(o), 0)
}

// normCDF is the standard normal cumulative distribution function. gonum
// evaluates it through math.Erfc, which keeps precision in the far tails.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
