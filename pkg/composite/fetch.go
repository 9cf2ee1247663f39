package composite

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/composite/pkg/types"
)

// DefaultConcurrency bounds the number of reads in flight per invocation.
const DefaultConcurrency = 10

// fetchAll reads every descriptor over window with at most limit reads in
// flight. Reads are dispatched in descriptor order and results are returned in
// descriptor order regardless of completion order.
//
// The first failure cancels the shared context: reads still in flight are
// abandoned, reads not yet dispatched are skipped, and no partial result is
// returned.
func fetchAll(ctx context.Context, client Client, tracer trace.Tracer, descriptors []types.MetricDescriptor, window types.TimeWindow, limit int) ([]types.Sample, error) {
	samples := make([]types.Sample, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, d := range descriptors {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			fctx, span := tracer.Start(gctx, "composite.fetch", trace.WithAttributes(
				attribute.Int("composite.input.index", i),
				attribute.String("composite.input.metric", d.String()),
			))
			defer span.End()

			s, err := client.GetMetricStatistics(fctx, d, window)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "fetch failed")
				return &FetchError{Index: i, Metric: d, Err: err}
			}
			span.SetAttributes(attribute.Int("composite.input.datapoints", len(s.Datapoints)))
			samples[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
