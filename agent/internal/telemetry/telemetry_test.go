package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRun("fleet-cpu", t0, 120*time.Millisecond, types.NewValue(0, types.UnitPercent), nil)
	m.ObserveRun("fleet-cpu", t0, 80*time.Millisecond, types.Result{}, &composite.FetchError{Err: errors.New("throttled")})
	m.ObserveRun("fleet-cpu", t0, 80*time.Millisecond, types.Result{}, &composite.PublishError{Err: errors.New("denied")})

	if got := testutil.ToFloat64(m.runs.WithLabelValues("fleet-cpu", OutcomeSuccess)); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("fleet-cpu", composite.KindFetch)); got != 1 {
		t.Errorf("fetch failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("fleet-cpu", composite.KindPublish)); got != 1 {
		t.Errorf("publish failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("fleet-cpu")); got != float64(t0.Unix()) {
		t.Errorf("last success = %v, want %d", got, t0.Unix())
	}
	if got := testutil.ToFloat64(m.lastValue.WithLabelValues("fleet-cpu")); got != 0 {
		t.Errorf("last value = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestMetrics_StatisticsValueIsSum(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRun("req", t0, time.Second, types.NewStatistics(types.Statistics{Max: 3, Min: 1, Count: 3, Sum: 6}, types.UnitCount), nil)
	if got := testutil.ToFloat64(m.lastValue.WithLabelValues("req")); got != 6 {
		t.Errorf("last value = %v, want 6", got)
	}
}

func TestMetrics_Forget(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRun("a", t0, time.Second, types.NewValue(1, types.UnitCount), nil)
	m.ObserveRun("b", t0, time.Second, types.NewValue(2, types.UnitCount), nil)

	m.Forget("a")
	if n := testutil.CollectAndCount(m.lastValue); n != 1 {
		t.Errorf("last value series after Forget = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(m.runs); n != 2 {
		t.Errorf("run counters after Forget = %d, want 2", n)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRun("fleet-cpu", t0, time.Second, types.NewValue(42, types.UnitPercent), nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`composite_runs_total{composite="fleet-cpu",outcome="success"} 1`,
		`composite_last_value{composite="fleet-cpu"} 42`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestMetrics_DefaultRegisterer(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := NewMetrics(prometheus.DefaultRegisterer)
	m.ObserveRun("x", t0, time.Second, types.NewValue(1, types.UnitCount), nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(mfs) == 0 {
		t.Error("nothing registered on the default registerer")
	}
}

func TestInitTracing(t *testing.T) {
	tests := []struct {
		exporter string
		wantErr  bool
	}{
		{"", false},
		{"none", false},
		{"stdout", false},
		{"otlp", false},
		{"zipkin", true},
	}
	for _, tc := range tests {
		t.Run(tc.exporter, func(t *testing.T) {
			shutdown, err := InitTracing(context.Background(),
				config.TracingConfig{Exporter: tc.exporter, Endpoint: "http://127.0.0.1:4318"}, "composite-agent", "test")
			if (err != nil) != tc.wantErr {
				t.Fatalf("InitTracing() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			// Nothing was exported, so shutdown does not dial the collector.
			if err := shutdown(ctx); err != nil {
				t.Errorf("shutdown() error = %v", err)
			}
		})
	}
}
