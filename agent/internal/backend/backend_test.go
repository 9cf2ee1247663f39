package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/pkg/types"
)

var (
	t0  = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	win = types.TimeWindow{Start: t0.Add(-time.Minute), End: t0, Period: time.Minute}
	cpu = types.MetricDescriptor{Name: "cpu", Namespace: "node", Statistic: types.Average, DimensionName: "instance", DimensionValue: "a"}
)

// headerServer answers every Prometheus query with an empty vector and records
// the request headers it saw.
func headerServer(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var mu sync.Mutex
	seen := &http.Header{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*seen = r.Header.Clone()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestNew_PrometheusAuth(t *testing.T) {
	t.Setenv("TEST_PROM_KEY", "k-123")
	t.Setenv("TEST_PROM_TOKEN", "tok")
	t.Setenv("TEST_PROM_PASS", "pw")

	tests := []struct {
		name   string
		auth   config.AuthConfig
		header string
		want   string
	}{
		{"apikey", config.AuthConfig{Mode: "apikey", Header: "X-Scope-Key", KeyEnv: "TEST_PROM_KEY"}, "X-Scope-Key", "k-123"},
		{"bearer", config.AuthConfig{Mode: "bearer", TokenEnv: "TEST_PROM_TOKEN"}, "Authorization", "Bearer tok"},
		{"basic", config.AuthConfig{Mode: "basic", Username: "admin", PasswordEnv: "TEST_PROM_PASS"}, "Authorization", "Basic YWRtaW46cHc="},
		{"none", config.AuthConfig{Mode: "none"}, "Authorization", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, seen := headerServer(t)
			c, err := New(context.Background(), config.BackendConfig{
				Type: config.BackendPrometheus,
				Prometheus: config.PrometheusConfig{
					Address:     srv.URL,
					Pushgateway: srv.URL,
					Auth:        tc.auth,
				},
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, err := c.GetMetricStatistics(context.Background(), cpu, win); err != nil {
				t.Fatalf("GetMetricStatistics() error = %v", err)
			}
			if got := seen.Get(tc.header); got != tc.want {
				t.Errorf("%s header: got %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	if _, err := New(context.Background(), config.BackendConfig{Type: "graphite"}); err == nil {
		t.Fatal("expected error for unsupported type, got nil")
	}
}

func TestNew_MTLSMissingCert(t *testing.T) {
	_, err := New(context.Background(), config.BackendConfig{
		Type: config.BackendPrometheus,
		Prometheus: config.PrometheusConfig{
			Address:     "http://prom",
			Pushgateway: "http://pgw",
			Auth:        config.AuthConfig{Mode: "mtls", CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
		},
	})
	if err == nil {
		t.Fatal("expected error for missing client cert, got nil")
	}
}

func TestNew_RateLimitWraps(t *testing.T) {
	c, err := New(context.Background(), config.BackendConfig{
		Type:       config.BackendPrometheus,
		RateLimit:  5,
		Burst:      1,
		Prometheus: config.PrometheusConfig{Address: "http://prom", Pushgateway: "http://pgw"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := c.(*Limited); !ok {
		t.Errorf("client type = %T, want *Limited", c)
	}
}

// countingClient counts calls and returns zero values.
type countingClient struct {
	mu    sync.Mutex
	reads int
	puts  int
}

func (c *countingClient) GetMetricStatistics(context.Context, types.MetricDescriptor, types.TimeWindow) (types.Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return types.Sample{}, nil
}

func (c *countingClient) PutMetricData(context.Context, types.PublishRequest) (types.PublishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	return types.PublishResult{}, nil
}

func TestLimited_BlocksUntilContextDone(t *testing.T) {
	next := &countingClient{}
	// One token, refilled once an hour.
	l := NewLimited(next, rate.NewLimiter(rate.Every(time.Hour), 1))

	if _, err := l.GetMetricStatistics(context.Background(), cpu, win); err != nil {
		t.Fatalf("first call should use the burst token, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.PutMetricData(ctx, types.PublishRequest{})
	if err == nil {
		t.Fatal("expected rate limit error, got nil")
	}
	if next.puts != 0 {
		t.Errorf("puts = %d, want 0: a throttled call must not reach the backend", next.puts)
	}
	if next.reads != 1 {
		t.Errorf("reads = %d, want 1", next.reads)
	}
}

func TestLimited_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("backend down")
	l := NewLimited(failingClient{err: boom}, rate.NewLimiter(rate.Inf, 1))

	for i := 0; i < 3; i++ {
		if _, err := l.GetMetricStatistics(context.Background(), cpu, win); !errors.Is(err, boom) {
			t.Fatalf("call %d: error = %v, want %v", i, err, boom)
		}
	}
}

type failingClient struct{ err error }

func (f failingClient) GetMetricStatistics(context.Context, types.MetricDescriptor, types.TimeWindow) (types.Sample, error) {
	return types.Sample{}, f.err
}

func (f failingClient) PutMetricData(context.Context, types.PublishRequest) (types.PublishResult, error) {
	return types.PublishResult{}, f.err
}
