package composite

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRegion is the backend region used when neither WithRegion nor
// WithClient is given.
const DefaultRegion = "us-east-1"

const tracerName = "github.com/obsidianstack/composite/pkg/composite"

// Option configures New.
type Option func(*settings) error

type settings struct {
	region      string
	client      Client
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
	tp          trace.TracerProvider
}

func defaultSettings() settings {
	return settings{
		region:      DefaultRegion,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// WithRegion selects the backend region used to build the default client.
// Ignored when WithClient is also given.
func WithRegion(region string) Option {
	return func(s *settings) error {
		if strings.TrimSpace(region) == "" {
			return fmt.Errorf("%w: region must not be empty", ErrInvalidOption)
		}
		s.region = region
		return nil
	}
}

// WithClient supplies the backend client. It is shared by every invocation
// and must be safe for concurrent use.
func WithClient(c Client) Option {
	return func(s *settings) error {
		if c == nil {
			return fmt.Errorf("%w: client must not be nil", ErrInvalidOption)
		}
		s.client = c
		return nil
	}
}

// WithConcurrency bounds the number of reads in flight per invocation.
// The default is DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidOption, n)
		}
		s.concurrency = n
		return nil
	}
}

// WithClock replaces time.Now. Tests use it to pin the window and the publish
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		if now == nil {
			return fmt.Errorf("%w: clock must not be nil", ErrInvalidOption)
		}
		s.now = now
		return nil
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) error {
		s.logger = l
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) error {
		s.tp = tp
		return nil
	}
}

func (s *settings) tracer() trace.Tracer {
	if s.tp == nil {
		return otel.Tracer(tracerName)
	}
	return s.tp.Tracer(tracerName)
}

// RunOption configures one invocation.
type RunOption func(*runSettings)

type runSettings struct {
	period time.Duration
}

// WithPeriod sets the window length. It must be a positive multiple of one
// minute. Without it the period is DefaultPeriod.
func WithPeriod(p time.Duration) RunOption {
	return func(r *runSettings) {
		r.period = p
	}
}
