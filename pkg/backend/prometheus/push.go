package prometheus

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/obsidianstack/composite/pkg/types"
)

// PutMetricData pushes req to the Pushgateway with POST semantics, replacing
// only the metrics of the same name in the group. The group is the job plus
// the request's dimensions. A value becomes one gauge; a statistic set becomes
// the gauges <name>_max, <name>_min, <name>_count and <name>_sum.
//
// The Pushgateway stamps samples on scrape, so req.Timestamp is not sent.
func (c *Client) PutMetricData(ctx context.Context, req types.PublishRequest) (types.PublishResult, error) {
	name := seriesName(req.Namespace, req.MetricName)
	reg := prometheus.NewRegistry()

	gauge := func(suffix string, v float64) error {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name + suffix,
			Help: fmt.Sprintf("Composite metric %s/%s (unit %s).", req.Namespace, req.MetricName, req.Unit),
		})
		g.Set(v)
		return reg.Register(g)
	}

	switch {
	case req.StatisticValues != nil:
		sv := req.StatisticValues
		for _, p := range []struct {
			suffix string
			v      float64
		}{
			{"_max", sv.Maximum},
			{"_min", sv.Minimum},
			{"_count", sv.SampleCount},
			{"_sum", sv.Sum},
		} {
			if err := gauge(p.suffix, p.v); err != nil {
				return types.PublishResult{}, fmt.Errorf("prometheus: register %s%s: %w", name, p.suffix, err)
			}
		}
	case req.Value != nil:
		if err := gauge("", *req.Value); err != nil {
			return types.PublishResult{}, fmt.Errorf("prometheus: register %s: %w", name, err)
		}
	default:
		return types.PublishResult{}, fmt.Errorf("prometheus: publish %s: request has neither value nor statistics", name)
	}

	p := push.New(c.pushURL, c.job).Gatherer(reg).Client(c.http)
	for _, d := range req.Dimensions {
		p = p.Grouping(labelName(d.Name), d.Value)
	}
	if err := p.AddContext(ctx); err != nil {
		return types.PublishResult{}, fmt.Errorf("prometheus: push %s: %w", name, err)
	}
	return types.PublishResult{}, nil
}
