package scenario

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/pricing"
	"github.com/contactkeval/option-xray/internal/testutil"
)

func atmCall() instrument.Option {
	return instrument.Option{Spot: 100, Strike: 100, Maturity: 1.0, Rate: 0.01, Dividend: 0.0, Type: instrument.Call}
}

func TestRunScenarioPnL(t *testing.T) {
	scenarios := []Scenario{
		New("spot_up", map[string]float64{SpotAbs: 5.0}),
		New("vol_up", map[string]float64{VolAbs: 0.05}),
	}

	rows := Run(atmCall(), 0.2, scenarios)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "spot_up" || rows[1].Name != "vol_up" {
		t.Fatalf("unexpected row names: %q, %q", rows[0].Name, rows[1].Name)
	}

	var total float64
	for _, r := range rows {
		total += math.Abs(r.PnL)
	}
	if total <= 0 {
		t.Fatalf("expected non-zero absolute P&L, got %f", total)
	}
}

func TestRunRowContents(t *testing.T) {
	base := atmCall()
	s := New("", map[string]float64{
		SpotPct:  0.10,
		SpotAbs:  2,
		VolPct:   0.5,
		VolAbs:   0.01,
		RateAbs:  0.02,
		DivAbs:   0.01,
		TimeDays: 73,
		"bogus":  99,
	})

	rows := Run(base, 0.2, []Scenario{s})
	r := rows[0]

	if r.Name != DefaultName {
		t.Fatalf("unnamed scenario should be %q, got %q", DefaultName, r.Name)
	}
	want := Row{
		Name:     DefaultName,
		Spot:     100*1.10 + 2,
		Vol:      0.2*1.5 + 0.01,
		Rate:     0.03,
		Dividend: 0.01,
		Maturity: 1.0 - 73.0/365.0,
	}
	for _, c := range []struct {
		name      string
		got, want float64
	}{
		{"spot", r.Spot, want.Spot},
		{"vol", r.Vol, want.Vol},
		{"rate", r.Rate, want.Rate},
		{"dividend", r.Dividend, want.Dividend},
		{"maturity", r.Maturity, want.Maturity},
	} {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Fatalf("%s = %f, want %f", c.name, c.got, c.want)
		}
	}

	shocked := instrument.Option{Spot: r.Spot, Strike: 100, Maturity: r.Maturity, Rate: r.Rate, Dividend: r.Dividend, Type: instrument.Call}
	if p := pricing.Price(shocked, r.Vol); p != r.Price {
		t.Fatalf("row not reproducible: price %f vs %f", r.Price, p)
	}
	if math.Abs(r.PnL-(r.Price-pricing.Price(base, 0.2))) > 1e-12 {
		t.Fatalf("pnl %f is not shocked minus base", r.PnL)
	}
}

func TestApplyFloorsAndLeavesBaseUnchanged(t *testing.T) {
	base := atmCall()
	before := base

	shocked, vol := Apply(base, 0.2, New("wipeout", map[string]float64{VolAbs: -1, TimeDays: 1000}))
	if vol != 1e-6 {
		t.Fatalf("vol should be floored at 1e-6, got %g", vol)
	}
	if shocked.Maturity != 1e-6 {
		t.Fatalf("maturity should be floored at 1e-6, got %g", shocked.Maturity)
	}
	if base != before {
		t.Fatalf("base option mutated: %+v", base)
	}

	p := pricing.Price(shocked, vol)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		t.Fatalf("extreme shock produced non-finite price %f", p)
	}
}

func TestSpotShockSign(t *testing.T) {
	up := []Scenario{New("up", map[string]float64{SpotPct: 0.03})}

	call := atmCall()
	if r := Run(call, 0.25, up)[0]; r.PnL < 0 {
		t.Fatalf("call pnl on spot up should be >= 0, got %f", r.PnL)
	}

	put := call
	put.Type = instrument.Put
	if r := Run(put, 0.25, up)[0]; r.PnL > 0 {
		t.Fatalf("put pnl on spot up should be <= 0, got %f", r.PnL)
	}
}

func TestRunEmpty(t *testing.T) {
	rows := Run(atmCall(), 0.2, nil)
	if rows == nil {
		t.Fatalf("empty run should return a non-nil table")
	}
	if len(rows) != 0 {
		t.Fatalf("expected zero rows, got %d", len(rows))
	}
}

func TestParallelRunMatchesSequential(t *testing.T) {
	scenarios := DefaultSet()
	seq := Engine{}.Run(atmCall(), 0.2, scenarios)
	par := Engine{Workers: 4}.Run(atmCall(), 0.2, scenarios)
	if !reflect.DeepEqual(seq, par) {
		t.Fatalf("parallel rows differ from sequential rows")
	}
}

func TestRankStableByAbsPnL(t *testing.T) {
	rows := []Row{
		{Name: "a", PnL: 1},
		{Name: "b", PnL: -3},
		{Name: "c", PnL: 3},
		{Name: "d", PnL: -1},
		{Name: "e", PnL: 0},
	}
	ranked := Rank(rows)

	var names []string
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	if want := []string{"b", "c", "a", "d", "e"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("rank order = %v, want %v", names, want)
	}
	if rows[0].Name != "a" {
		t.Fatalf("Rank reordered its input")
	}

	if top := Highlights(rows, 2); len(top) != 2 || top[0].Name != "b" || top[1].Name != "c" {
		t.Fatalf("unexpected highlights: %+v", top)
	}
	if top := Highlights(rows, 10); len(top) != 5 {
		t.Fatalf("highlights should cap at table size, got %d", len(top))
	}
	if top := Highlights(nil, 3); len(top) != 0 {
		t.Fatalf("highlights of empty table should be empty")
	}
}

func TestScenarioJSON(t *testing.T) {
	var s Scenario
	if err := json.Unmarshal([]byte(`{"name":"spot_up","dS_abs":5,"note":"ignored"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Name != "spot_up" || len(s.Shocks) != 1 || s.Shocks[SpotAbs] != 5 {
		t.Fatalf("unexpected scenario: %+v", s)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"dS_abs":5,"name":"spot_up"}` {
		t.Fatalf("unexpected JSON: %s", b)
	}
}

func TestDefaultSetGolden(t *testing.T) {
	testutil.CompareWithGolden(t, "default_set", DefaultSet())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "stress.yaml")
	yamlDoc := "- name: Spot +2%\n  dS_pct: 0.02\n- name: Time +10d\n  dT_days: 10\n  comment: decay\n- dvol_abs: 0.03\n"
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile yaml: %v", err)
	}
	want := []Scenario{
		New("Spot +2%", map[string]float64{SpotPct: 0.02}),
		New("Time +10d", map[string]float64{TimeDays: 10}),
		New("", map[string]float64{VolAbs: 0.03}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadFile yaml = %+v, want %+v", got, want)
	}

	jsonPath := filepath.Join(dir, "stress.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"name":"Rates +50bp","dr_abs":0.005}]`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile json: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Rates +50bp" || got[0].Shocks[RateAbs] != 0.005 {
		t.Fatalf("LoadFile json = %+v", got)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseEmptyAndInvalid(t *testing.T) {
	got, err := Parse(nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Parse(nil) = %v, %v", got, err)
	}
	if _, err := Parse([]byte("- just a string\n")); err == nil {
		t.Fatalf("expected error for non-mapping scenario")
	}
}
