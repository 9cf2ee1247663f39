package prometheus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/obsidianstack/composite/pkg/types"
)

// DefaultJob is the Pushgateway job name used when Config.Job is empty.
const DefaultJob = "composite"

// Config describes where to read and where to write.
type Config struct {
	// Address is the base URL of the Prometheus HTTP API, e.g. http://prometheus:9090.
	Address string

	// PushgatewayURL is the base URL of the Pushgateway composites are written to.
	PushgatewayURL string

	// Job is the Pushgateway job label. Defaults to DefaultJob.
	Job string

	// HTTPClient is used for both reads and writes. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Client reads statistics with PromQL range functions and writes composites to
// a Pushgateway. It is safe for concurrent use.
type Client struct {
	api     v1.API
	pushURL string
	job     string
	http    *http.Client
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("prometheus: address is required")
	}
	if cfg.PushgatewayURL == "" {
		return nil, errors.New("prometheus: pushgateway url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	job := cfg.Job
	if job == "" {
		job = DefaultJob
	}

	ac, err := api.NewClient(api.Config{Address: cfg.Address, Client: hc})
	if err != nil {
		return nil, fmt.Errorf("prometheus: create api client: %w", err)
	}
	return &Client{
		api:     v1.NewAPI(ac),
		pushURL: cfg.PushgatewayURL,
		job:     job,
		http:    hc,
	}, nil
}

// GetMetricStatistics evaluates <fn>_over_time over the whole window at the
// window end. Every series in the resulting vector becomes one datapoint; an
// empty vector is an empty sample.
func (c *Client) GetMetricStatistics(ctx context.Context, m types.MetricDescriptor, w types.TimeWindow) (types.Sample, error) {
	q, err := statisticQuery(m, w)
	if err != nil {
		return types.Sample{}, err
	}

	val, warnings, err := c.api.Query(ctx, q, w.End)
	if err != nil {
		return types.Sample{}, fmt.Errorf("prometheus: query %q: %w", q, err)
	}
	if len(warnings) > 0 {
		slog.Warn("prometheus: query returned warnings", "query", q, "warnings", []string(warnings))
	}

	vec, ok := val.(model.Vector)
	if !ok {
		return types.Sample{}, fmt.Errorf("prometheus: query %q: unexpected result type %s", q, val.Type())
	}

	s := types.Sample{
		Metric:     m,
		Label:      seriesName(m.Namespace, m.Name),
		Datapoints: make([]types.Datapoint, 0, len(vec)),
	}
	for _, el := range vec {
		dp := types.Datapoint{Timestamp: el.Timestamp.Time().UTC()}
		dp.Set(m.Statistic, float64(el.Value))
		s.Datapoints = append(s.Datapoints, dp)
	}
	sort.SliceStable(s.Datapoints, func(i, j int) bool {
		return s.Datapoints[i].Timestamp.Before(s.Datapoints[j].Timestamp)
	})
	return s, nil
}
