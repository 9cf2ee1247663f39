package compute

import (
	"slices"

	"github.com/obsidianstack/composite/pkg/types"
)

// reducer collapses one input's datapoint values, oldest first, into a
// scalar. vals is never empty.
type reducer func(vals []float64) float64

var reducers = map[string]reducer{
	"latest": func(vals []float64) float64 { return vals[len(vals)-1] },
	"mean":   mean,
	"sum":    sum,
	"max":    maxOf,
	"min":    minOf,
}

// scalar reduces s. It reports false when s has no value for its statistic.
func scalar(s types.Sample, reduce reducer) (float64, bool) {
	vals := s.Values()
	if len(vals) == 0 {
		return 0, false
	}
	return reduce(vals), true
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

func mean(vals []float64) float64 {
	return sum(vals) / float64(len(vals))
}

func maxOf(vals []float64) float64 { return slices.Max(vals) }
func minOf(vals []float64) float64 { return slices.Min(vals) }

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
