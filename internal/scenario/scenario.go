// Package scenario re-prices an option under hypothetical market shocks and
// reports the resulting P&L against the unshocked price.
package scenario

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/logger"
	"github.com/contactkeval/option-xray/internal/pricing"
)

// Shock keys recognized in Scenario.Shocks. Any other key is ignored.
const (
	SpotPct   = "dS_pct"   // relative spot move, 0.02 = +2%
	SpotAbs   = "dS_abs"   // absolute spot move
	VolPct    = "dvol_pct" // relative vol move
	VolAbs    = "dvol_abs" // absolute vol move, 0.05 = +5 vol points
	RateAbs   = "dr_abs"   // absolute rate move
	DivAbs    = "dq_abs"   // absolute dividend yield move
	TimeDays  = "dT_days"  // calendar days of decay, subtracted from maturity
	nameField = "name"
)

// DefaultName labels scenarios that arrive without a name.
const DefaultName = "scenario"

// floor keeps shocked vol and maturity strictly positive.
const floor = 1e-6

// Scenario is a named set of shocks.
//
// In JSON and YAML a scenario is written flat, the shocks sitting next to
// the name:
//
//	{"name": "spot_up", "dS_abs": 5.0}
type Scenario struct {
	Name   string
	Shocks map[string]float64
}

// New builds a named scenario from a shock map.
func New(name string, shocks map[string]float64) Scenario {
	return Scenario{Name: name, Shocks: shocks}
}

func (s Scenario) shock(key string) (float64, bool) {
	v, ok := s.Shocks[key]
	return v, ok
}

func (s Scenario) shockOr0(key string) float64 {
	return s.Shocks[key]
}

// MarshalJSON writes the flat form.
func (s Scenario) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.flat())
}

// UnmarshalJSON reads the flat form. Non-numeric fields other than name are
// ignored.
func (s *Scenario) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Scenario{Shocks: make(map[string]float64, len(raw))}
	for k, v := range raw {
		if k == nameField {
			if err := json.Unmarshal(v, &out.Name); err != nil {
				return fmt.Errorf("scenario name: %w", err)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			out.Shocks[k] = f
		}
	}
	*s = out
	return nil
}

// MarshalYAML writes the flat form.
func (s Scenario) MarshalYAML() (any, error) {
	return s.flat(), nil
}

// UnmarshalYAML reads the flat form.
func (s *Scenario) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scenario must be a mapping", value.Line)
	}
	out := Scenario{Shocks: make(map[string]float64, len(value.Content)/2)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		if key == nameField {
			if err := val.Decode(&out.Name); err != nil {
				return fmt.Errorf("scenario name: %w", err)
			}
			continue
		}
		var f float64
		if err := val.Decode(&f); err == nil {
			out.Shocks[key] = f
		}
	}
	*s = out
	return nil
}

func (s Scenario) flat() map[string]any {
	m := make(map[string]any, len(s.Shocks)+1)
	for k, v := range s.Shocks {
		m[k] = v
	}
	if s.Name != "" {
		m[nameField] = s.Name
	}
	return m
}

// Row is one line of the scenario table: the shocked price, its P&L against
// the base price, and every shocked input so the row can be reproduced.
type Row struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	PnL      float64 `json:"pnl"`
	Spot     float64 `json:"spot"`
	Vol      float64 `json:"vol"`
	Rate     float64 `json:"rate"`
	Dividend float64 `json:"dividend"`
	Maturity float64 `json:"maturity"`
}

// Apply derives the shocked option and volatility for s. The base option is
// not touched; a new value is returned.
//
// Percentage shocks apply to the base value first, absolute shocks are added
// afterwards. Vol and maturity are floored at 1e-6.
func Apply(o instrument.Option, vol float64, s Scenario) (instrument.Option, float64) {
	spot := o.Spot
	if v, ok := s.shock(SpotPct); ok {
		spot *= 1 + v
	}
	if v, ok := s.shock(SpotAbs); ok {
		spot += v
	}

	shockedVol := vol
	if v, ok := s.shock(VolPct); ok {
		shockedVol *= 1 + v
	}
	if v, ok := s.shock(VolAbs); ok {
		shockedVol += v
	}

	shocked := instrument.Option{
		Spot:     spot,
		Strike:   o.Strike,
		Maturity: math.Max(o.Maturity-s.shockOr0(TimeDays)/365.0, floor),
		Rate:     o.Rate + s.shockOr0(RateAbs),
		Dividend: o.Dividend + s.shockOr0(DivAbs),
		Type:     o.Type,
	}
	return shocked, math.Max(shockedVol, floor)
}

// Engine runs scenario sweeps. The zero value prices rows sequentially.
type Engine struct {
	// Workers bounds how many rows are priced concurrently. Values of 0 or 1
	// run sequentially. Output order never depends on Workers.
	Workers int
}

// Run prices every scenario against the base option and vol.
//
// The base price is computed once and shared by all rows. Rows keep the
// input order. An empty input yields an empty, non-nil table.
func (e Engine) Run(o instrument.Option, vol float64, scenarios []Scenario) []Row {
	rows := make([]Row, len(scenarios))
	if len(scenarios) == 0 {
		return rows
	}

	basePrice := pricing.Price(o, vol)

	priceRow := func(i int) {
		s := scenarios[i]
		name := s.Name
		if name == "" {
			name = DefaultName
		}
		shocked, shockedVol := Apply(o, vol, s)
		p := pricing.Price(shocked, shockedVol)
		rows[i] = Row{
			Name:     name,
			Price:    p,
			PnL:      p - basePrice,
			Spot:     shocked.Spot,
			Vol:      shockedVol,
			Rate:     shocked.Rate,
			Dividend: shocked.Dividend,
			Maturity: shocked.Maturity,
		}
	}

	if e.Workers <= 1 {
		for i := range scenarios {
			priceRow(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.Workers)
		for i := range scenarios {
			i := i
			g.Go(func() error {
				priceRow(i)
				return nil
			})
		}
		_ = g.Wait() // rows never fail
	}

	logger.Debugf("scenario sweep: rows=%d base=%.6f workers=%d", len(rows), basePrice, e.Workers)
	return rows
}

// Run prices scenarios sequentially.
func Run(o instrument.Option, vol float64, scenarios []Scenario) []Row {
	return Engine{}.Run(o, vol, scenarios)
}

// Rank returns a copy of rows ordered by descending absolute P&L. Rows with
// equal |P&L| keep their input order.
func Rank(rows []Row) []Row {
	ranked := make([]Row, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].PnL) > math.Abs(ranked[j].PnL)
	})
	return ranked
}

// Highlights returns at most n rows with the largest absolute P&L.
func Highlights(rows []Row, n int) []Row {
	ranked := Rank(rows)
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
