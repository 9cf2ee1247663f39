package backend

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/pkg/backend/cloudwatch"
	"github.com/obsidianstack/composite/pkg/backend/prometheus"
	"github.com/obsidianstack/composite/pkg/composite"
)

// New returns the backend client selected by cfg.Type. The client is shared by
// every composite, so a configured rate limit caps the agent as a whole.
func New(ctx context.Context, cfg config.BackendConfig) (composite.Client, error) {
	var (
		client composite.Client
		err    error
	)
	switch cfg.Type {
	case config.BackendCloudWatch:
		client, err = cloudwatch.New(ctx, cloudwatch.Config{Region: cfg.Region})
	case config.BackendPrometheus:
		client, err = newPrometheus(cfg.Prometheus)
	default:
		return nil, fmt.Errorf("backend: unsupported type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.Type, err)
	}

	if cfg.RateLimit > 0 {
		client = NewLimited(client, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst))
	}
	return client, nil
}

func newPrometheus(cfg config.PrometheusConfig) (*prometheus.Client, error) {
	hc, err := buildHTTPClient(cfg.Auth, cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}
	return prometheus.New(prometheus.Config{
		Address:        cfg.Address,
		PushgatewayURL: cfg.Pushgateway,
		Job:            cfg.Job,
		HTTPClient:     hc,
	})
}
