package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a list of scenarios from a YAML or JSON file. JSON is read
// by the YAML decoder, so either syntax works regardless of extension.
//
//	- name: spot_up
//	  dS_pct: 0.05
//	- name: crush
//	  dvol_abs: -0.05
//	  dT_days: 1
func LoadFile(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML or JSON scenario list. An empty document yields an
// empty list.
func Parse(raw []byte) ([]Scenario, error) {
	out := []Scenario{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding scenarios: %w", err)
	}
	if out == nil {
		out = []Scenario{}
	}
	return out, nil
}

// DefaultSet is a standard stress grid: spot ±5% and ±10%, vol ±5 points,
// rates ±50bp, and one week and one month of time decay.
func DefaultSet() []Scenario {
	return []Scenario{
		New("Spot -10%", map[string]float64{SpotPct: -0.10}),
		New("Spot -5%", map[string]float64{SpotPct: -0.05}),
		New("Spot +5%", map[string]float64{SpotPct: 0.05}),
		New("Spot +10%", map[string]float64{SpotPct: 0.10}),
		New("Vol -5 pts", map[string]float64{VolAbs: -0.05}),
		New("Vol +5 pts", map[string]float64{VolAbs: 0.05}),
		New("Rates -50bp", map[string]float64{RateAbs: -0.005}),
		New("Rates +50bp", map[string]float64{RateAbs: 0.005}),
		New("Time +7d", map[string]float64{TimeDays: 7}),
		New("Time +30d", map[string]float64{TimeDays: 30}),
	}
}
