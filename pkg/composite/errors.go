package composite

import (
	"context"
	"errors"
	"fmt"

	"github.com/obsidianstack/composite/pkg/types"
)

// Validation failures. Match with errors.Is.
var (
	ErrInvalidDescriptor    = errors.New("invalid metric descriptor")
	ErrInvalidAggregationFn = errors.New("invalid aggregation function")
	ErrInvalidOption        = errors.New("invalid option")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrInvalidResult        = errors.New("invalid composite result")
)

// ConfigurationError is returned by New when the inputs, output, function or
// options are invalid. No Composite is built.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return "composite: configuration: " + e.Err.Error() }
func (e *ConfigurationError) Unwrap() error { return e.Err }

// FetchError reports the first source-metric read that failed.
type FetchError struct {
	Index  int
	Metric types.MetricDescriptor
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("composite: fetch input %d (%s): %v", e.Index, e.Metric, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// AggregationError wraps an error returned, or a panic raised, by the
// aggregation function.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string { return "composite: aggregation: " + e.Err.Error() }
func (e *AggregationError) Unwrap() error { return e.Err }

// PublishError reports a failed backend write. The result had already been
// computed and validated; nothing was recorded.
type PublishError struct {
	Metric types.MetricDescriptor
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("composite: publish %s: %v", e.Metric, e.Err)
}
func (e *PublishError) Unwrap() error { return e.Err }

// Error kinds returned by Kind.
const (
	KindConfiguration = "configuration"
	KindInvalidPeriod = "invalid_period"
	KindFetch         = "fetch"
	KindInvalidResult = "invalid_result"
	KindAggregation   = "aggregation"
	KindPublish       = "publish"
	KindCanceled      = "canceled"
	KindUnknown       = "unknown"
)

// Kind classifies err into one of the Kind* constants. It returns "" for a nil
// error. Useful as a log attribute or metric label.
func Kind(err error) string {
	var (
		cfgErr *ConfigurationError
		fetErr *FetchError
		aggErr *AggregationError
		pubErr *PublishError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.Is(err, ErrInvalidPeriod):
		return KindInvalidPeriod
	case errors.As(err, &aggErr):
		return KindAggregation
	case errors.Is(err, ErrInvalidResult):
		return KindInvalidResult
	case errors.As(err, &fetErr):
		return KindFetch
	case errors.As(err, &pubErr):
		return KindPublish
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
