// Package report turns a valuation into a plain-English explanation and
// writes result files for the command line tool.
package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-xray/internal/scenario"
)

// TopGreeks and TopScenarios bound the "Key drivers" and "Scenario
// highlights" sections.
const (
	TopGreeks    = 3
	TopScenarios = 3
)

// greekOrder fixes the order in which equal-magnitude Greeks are listed.
var greekOrder = []string{"delta", "gamma", "vega", "theta", "rho"}

// OptionDetails is the contract description printed at the top of a report.
type OptionDetails struct {
	Spot     float64 `json:"spot"`
	Strike   float64 `json:"strike"`
	Maturity float64 `json:"maturity"`
	Rate     float64 `json:"rate"`
	Dividend float64 `json:"dividend"`
	Type     string  `json:"type"`
}

// Input is everything the report needs. MarketPrice and ImpliedVol are nil
// when absent. An empty Scenarios table means none were requested and the
// scenario section is left out.
type Input struct {
	Option      OptionDetails
	MarketPrice *float64
	TheoPrice   float64
	ImpliedVol  *float64
	Intrinsic   float64
	Extrinsic   float64
	Greeks      map[string]float64
	Scenarios   []scenario.Row
}

// Generate renders the explanation report.
func Generate(in Input) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("OptionXRay Report")
	line("=")
	line("Option details:")
	line("- spot: " + plain(in.Option.Spot))
	line("- strike: " + plain(in.Option.Strike))
	line("- maturity: " + plain(in.Option.Maturity))
	line("- rate: " + plain(in.Option.Rate))
	line("- dividend: " + plain(in.Option.Dividend))
	line("- type: " + in.Option.Type)

	line("")
	line("Theoretical price (BS): " + fixed(in.TheoPrice, 4))
	if in.MarketPrice != nil {
		line("Market price: " + fixed(*in.MarketPrice, 4))
	}
	if in.ImpliedVol != nil {
		line("Implied volatility: " + percent(*in.ImpliedVol))
	}
	line("Intrinsic value: " + fixed(in.Intrinsic, 4))
	line("Extrinsic value: " + fixed(in.Extrinsic, 4))

	line("")
	line("Key drivers (largest Greeks):")
	for _, g := range topGreeks(in.Greeks, TopGreeks) {
		direction := "decreases"
		if g.value > 0 {
			direction = "increases"
		}
		line("- " + g.name + " " + direction + " price by " + fixed(math.Abs(g.value), 4) + " per unit move")
	}

	if highlights := scenario.Highlights(in.Scenarios, TopScenarios); len(highlights) > 0 {
		line("")
		line("Scenario highlights:")
		for _, r := range highlights {
			impact := "decrease"
			if r.PnL > 0 {
				impact = "increase"
			}
			line("- " + r.Name + ": " + impact + " of " + fixed(r.PnL, 4) + " (price " + fixed(r.Price, 4) + ")")
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

type namedGreek struct {
	name  string
	value float64
}

// topGreeks orders Greeks by descending magnitude. Ties keep greekOrder,
// unknown names follow alphabetically.
func topGreeks(greeks map[string]float64, n int) []namedGreek {
	all := make([]namedGreek, 0, len(greeks))
	seen := make(map[string]bool, len(greekOrder))
	for _, name := range greekOrder {
		if v, ok := greeks[name]; ok {
			all = append(all, namedGreek{name, v})
			seen[name] = true
		}
	}
	var extra []string
	for name := range greeks {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		all = append(all, namedGreek{name, greeks[name]})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return math.Abs(all[i].value) > math.Abs(all[j].value)
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// fixed formats v with the given number of decimals. decimal cannot
// represent NaN or infinities, those fall back to strconv.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', int(places), 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64) + "%"
	}
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
