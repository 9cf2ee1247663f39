package composite

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/obsidianstack/composite/pkg/types"
)

// DefaultPeriod is used when Run is called without WithPeriod.
const DefaultPeriod = time.Minute

// ValidateDescriptor checks that every field of d is set and that the
// statistic is one of the supported values.
func ValidateDescriptor(d types.MetricDescriptor) error {
	for _, f := range []struct{ name, val string }{
		{"name", d.Name},
		{"namespace", d.Namespace},
		{"statistic", string(d.Statistic)},
		{"dimension_name", d.DimensionName},
		{"dimension_value", d.DimensionValue},
	} {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidDescriptor, f.name)
		}
	}
	if !d.Statistic.Valid() {
		return fmt.Errorf("%w: unknown statistic %q", ErrInvalidDescriptor, d.Statistic)
	}
	return nil
}

// ValidateDescriptors applies ValidateDescriptor to every element and stops at
// the first invalid one.
func ValidateDescriptors(list []types.MetricDescriptor) error {
	for i, d := range list {
		if err := ValidateDescriptor(d); err != nil {
			return fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateFunc rejects a nil aggregation function.
func ValidateFunc(fn Func) error {
	if fn == nil {
		return fmt.Errorf("%w: function is nil", ErrInvalidAggregationFn)
	}
	return nil
}

// ValidatePeriod requires a positive whole number of minutes.
func ValidatePeriod(p time.Duration) error {
	if p <= 0 || p%time.Minute != 0 {
		return fmt.Errorf("%w: %v is not a positive multiple of 60s", ErrInvalidPeriod, p)
	}
	return nil
}

// ValidateResult checks the shape an aggregation function must return: a known
// unit and exactly one of Statistics or Value, with finite numbers.
func ValidateResult(r types.Result) error {
	if r.Unit == "" {
		return fmt.Errorf("%w: unit is required", ErrInvalidResult)
	}
	if !r.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidResult, r.Unit)
	}

	switch r.Kind() {
	case types.KindValue:
		if !finite(*r.Value) {
			return fmt.Errorf("%w: value %v is not a finite number", ErrInvalidResult, *r.Value)
		}
	case types.KindStatistics:
		s := r.Statistics
		for _, f := range []struct {
			name string
			v    float64
		}{{"max", s.Max}, {"min", s.Min}, {"count", s.Count}, {"sum", s.Sum}} {
			if !finite(f.v) {
				return fmt.Errorf("%w: statistics.%s %v is not a finite number", ErrInvalidResult, f.name, f.v)
			}
		}
	default:
		if r.Value != nil {
			return fmt.Errorf("%w: statistics and value are mutually exclusive", ErrInvalidResult)
		}
		return fmt.Errorf("%w: one of statistics or value is required", ErrInvalidResult)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
