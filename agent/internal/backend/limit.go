package backend

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// Limited paces calls to the wrapped client through a token bucket. It does
// not retry: a failed call surfaces immediately.
type Limited struct {
	next composite.Client
	lim  *rate.Limiter
}

// NewLimited wraps next with lim.
func NewLimited(next composite.Client, lim *rate.Limiter) *Limited {
	return &Limited{next: next, lim: lim}
}

func (l *Limited) GetMetricStatistics(ctx context.Context, m types.MetricDescriptor, w types.TimeWindow) (types.Sample, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return types.Sample{}, fmt.Errorf("backend: rate limit: %w", err)
	}
	return l.next.GetMetricStatistics(ctx, m, w)
}

func (l *Limited) PutMetricData(ctx context.Context, req types.PublishRequest) (types.PublishResult, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return types.PublishResult{}, fmt.Errorf("backend: rate limit: %w", err)
	}
	return l.next.PutMetricData(ctx, req)
}
