package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("/v1/price", 200, 10*time.Millisecond)
	m.RecordRequest("/v1/price", 200, 20*time.Millisecond)
	m.RecordRequest("/v1/price", 400, time.Millisecond)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/price", "200")); got != 2 {
		t.Fatalf("requests_total{200} = %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/price", "400")); got != 1 {
		t.Fatalf("requests_total{400} = %f, want 1", got)
	}
	if n := testutil.CollectAndCount(m.RequestDuration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestRegistryGathersCollectors(t *testing.T) {
	m := New()
	m.RecordRequest("/v1/xray", 200, time.Millisecond)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]bool{}
	for _, mf := range families {
		got[mf.GetName()] = true
	}
	for _, name := range []string{
		"optionxray_requests_total",
		"optionxray_request_duration_seconds",
		"optionxray_implied_vol_iterations",
		"optionxray_scenario_rows_total",
		"go_goroutines",
	} {
		if !got[name] {
			t.Fatalf("registry is missing %s", name)
		}
	}
}

func TestRecordSolverAndScenarios(t *testing.T) {
	m := New()
	m.RecordImpliedVol(12)
	m.RecordScenarioRows(10)
	m.RecordScenarioRows(3)

	if got := testutil.ToFloat64(m.ScenarioRowsTotal); got != 13 {
		t.Fatalf("scenario_rows_total = %f, want 13", got)
	}
	if n := testutil.CollectAndCount(m.ImpliedVolIterations); n != 1 {
		t.Fatalf("expected implied vol histogram, got %d series", n)
	}
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.RecordRequest("/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`optionxray_requests_total{route="/health",status="200"} 1`,
		"optionxray_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordScenarioRows(5)
	if got := testutil.ToFloat64(b.ScenarioRowsTotal); got != 0 {
		t.Fatalf("registries should not share state, got %f", got)
	}
}
