package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/contactkeval/option-xray/internal/pricing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix+"_") {
			key, _, _ := strings.Cut(kv, "=")
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	t.Setenv("POLYGON_API_KEY", "")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "bs" || cfg.Solver.Method != SolverBrent {
		t.Fatalf("unexpected defaults: model=%s method=%s", cfg.Model, cfg.Solver.Method)
	}
	def := pricing.DefaultSolverOptions()
	if cfg.Solver.VolLow != def.VolLow || cfg.Solver.VolHigh != def.VolHigh || cfg.Solver.Tol != def.Tol || cfg.Solver.MaxIter != def.MaxIter {
		t.Fatalf("solver defaults %+v differ from pricing defaults %+v", cfg.Solver, def)
	}
	if cfg.Server.Addr != ":8080" || len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Logger.Output != "stderr" || cfg.Scenarios.Workers != 1 {
		t.Fatalf("unexpected logger/scenario defaults: %+v %+v", cfg.Logger, cfg.Scenarios)
	}

	if d := Default(); d.Solver != cfg.Solver || d.Model != cfg.Model {
		t.Fatalf("Default() differs from Load(\"\")")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "xray.yaml", `
solver:
  method: bisection
  max_iter: 50
scenarios:
  workers: 4
server:
  addr: ":9090"
  allowed_origins: ["https://example.com"]
logger:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.Method != SolverBisection || cfg.Solver.MaxIter != 50 {
		t.Fatalf("solver not read from file: %+v", cfg.Solver)
	}
	if cfg.Solver.Tol != 1e-8 {
		t.Fatalf("unset keys should keep defaults, tol=%g", cfg.Solver.Tol)
	}
	if cfg.Scenarios.Workers != 4 || cfg.Server.Addr != ":9090" || cfg.Logger.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://example.com" {
		t.Fatalf("allowed origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadJSONFile(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "xray.json", `{"model": "bs", "solver": {"vol_high": 3.0}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.VolHigh != 3.0 {
		t.Fatalf("vol_high = %g, want 3", cfg.Solver.VolHigh)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPTIONXRAY_SOLVER_METHOD", "bisection")
	t.Setenv("OPTIONXRAY_SCENARIOS_WORKERS", "8")
	t.Setenv("OPTIONXRAY_MASSIVE_API_KEY", "secret")

	path := writeFile(t, "xray.yaml", "solver:\n  method: brent\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.Method != SolverBisection {
		t.Fatalf("env should override file, method=%s", cfg.Solver.Method)
	}
	if cfg.Scenarios.Workers != 8 || cfg.Massive.APIKey != "secret" {
		t.Fatalf("unexpected env overrides: workers=%d key=%q", cfg.Scenarios.Workers, cfg.Massive.APIKey)
	}
}

func TestLoadPolygonKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "legacy")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Massive.APIKey != "legacy" {
		t.Fatalf("api key = %q, want POLYGON_API_KEY value", cfg.Massive.APIKey)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := writeFile(t, "bad.yaml", "solver:\n  method: newton\n")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "newton") {
		t.Fatalf("expected unknown method error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"inverted bracket", func(c *Config) { c.Solver.VolLow, c.Solver.VolHigh = 2, 1 }},
		{"zero low", func(c *Config) { c.Solver.VolLow = 0 }},
		{"zero tol", func(c *Config) { c.Solver.Tol = 0 }},
		{"zero iterations", func(c *Config) { c.Solver.MaxIter = 0 }},
		{"negative workers", func(c *Config) { c.Scenarios.Workers = -1 }},
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }},
		{"bad server mode", func(c *Config) { c.Server.Mode = "prod" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSolverBuild(t *testing.T) {
	opt := Default().Solver
	opt.Method = "BISECTION"
	opt.MaxIter = 3

	s, err := opt.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := s.Options(); got.MaxIter != 3 || got.VolHigh != opt.VolHigh {
		t.Fatalf("solver options %+v", got)
	}

	opt.Method = "secant"
	if _, err := opt.Build(); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}
