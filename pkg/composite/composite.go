package composite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obsidianstack/composite/pkg/backend/cloudwatch"
	"github.com/obsidianstack/composite/pkg/types"
)

// Client is the monitoring backend capability a Composite needs.
// Implementations must be safe for concurrent use.
type Client interface {
	// GetMetricStatistics reads one series' requested statistic over w.
	// A series without data in w yields an empty Sample, not an error.
	GetMetricStatistics(ctx context.Context, m types.MetricDescriptor, w types.TimeWindow) (types.Sample, error)

	// PutMetricData writes one composite sample.
	PutMetricData(ctx context.Context, req types.PublishRequest) (types.PublishResult, error)
}

// Composite computes one derived metric from a fixed set of input metrics.
// A Composite holds no per-invocation state; Run may be called concurrently.
type Composite struct {
	inputs []types.MetricDescriptor
	output types.MetricDescriptor
	fn     Func
	client Client
	limit  int
	now    func() time.Time
	log    *slog.Logger
	tracer trace.Tracer
}

// New validates the configuration and returns a ready Composite. Any invalid
// argument yields a *ConfigurationError and no Composite.
//
// Without WithClient a CloudWatch client is built for the configured region
// (DefaultRegion unless WithRegion is given).
func New(inputs []types.MetricDescriptor, output types.MetricDescriptor, fn Func, opts ...Option) (*Composite, error) {
	if err := ValidateDescriptors(inputs); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if err := ValidateDescriptor(output); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("output: %w", err)}
	}
	if err := ValidateFunc(fn); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, &ConfigurationError{Err: err}
		}
	}

	if s.client == nil {
		cw, err := cloudwatch.New(context.Background(), cloudwatch.Config{Region: s.region})
		if err != nil {
			return nil, &ConfigurationError{Err: fmt.Errorf("build cloudwatch client: %w", err)}
		}
		s.client = cw
	}

	log := s.logger
	if log == nil {
		log = slog.Default()
	}

	return &Composite{
		inputs: append([]types.MetricDescriptor(nil), inputs...),
		output: output,
		fn:     fn,
		client: s.client,
		limit:  s.concurrency,
		now:    s.now,
		log:    log.With("output", output.Name),
		tracer: s.tracer(),
	}, nil
}

// Inputs returns a copy of the input descriptors in configured order.
func (c *Composite) Inputs() []types.MetricDescriptor {
	return append([]types.MetricDescriptor(nil), c.inputs...)
}

// Output returns the output descriptor.
func (c *Composite) Output() types.MetricDescriptor {
	return c.output
}

// Run performs one invocation: read every input over the window ending now,
// aggregate, validate, and publish. It returns the backend's write result
// unchanged, or the first error from any stage. An invalid period fails before
// any backend call.
func (c *Composite) Run(ctx context.Context, opts ...RunOption) (types.PublishResult, error) {
	rs := runSettings{period: DefaultPeriod}
	for _, opt := range opts {
		opt(&rs)
	}
	if err := ValidatePeriod(rs.period); err != nil {
		return types.PublishResult{}, err
	}

	runID := uuid.NewString()
	log := c.log.With("run_id", runID)

	ctx, span := c.tracer.Start(ctx, "composite.run", trace.WithAttributes(
		attribute.String("composite.run_id", runID),
		attribute.String("composite.output", c.output.String()),
		attribute.Int("composite.inputs", len(c.inputs)),
		attribute.Int64("composite.period_seconds", int64(rs.period/time.Second)),
	))
	defer span.End()

	out, err := c.run(ctx, rs.period, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		log.Warn("composite: run failed", "kind", Kind(err), "err", err)
		return types.PublishResult{}, err
	}
	return out, nil
}

func (c *Composite) run(ctx context.Context, period time.Duration, log *slog.Logger) (types.PublishResult, error) {
	window := computeWindow(c.now(), period)

	samples, err := fetchAll(ctx, c.client, c.tracer, c.inputs, window, c.limit)
	if err != nil {
		return types.PublishResult{}, err
	}
	log.Debug("composite: inputs fetched", "count", len(samples), "start", window.Start, "end", window.End)

	res, err := compose(c.fn, samples)
	if err != nil {
		return types.PublishResult{}, err
	}

	req := translate(res, c.output, c.now())
	out, err := c.client.PutMetricData(ctx, req)
	if err != nil {
		return types.PublishResult{}, &PublishError{Metric: c.output, Err: err}
	}

	log.Info("composite: published", "kind", res.Kind().String(), "unit", req.Unit, "request_id", out.RequestID)
	return out, nil
}
