package compute

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// ErrNoData is returned by a built function when no input carried a usable
// datapoint in the window.
var ErrNoData = errors.New("no datapoints in window")

// Build returns the aggregation function named by fn for a composite with
// the given number of inputs. Parameters are checked here so a bad function
// fails at setup, not on the first run.
func Build(fn config.Function, inputs int) (composite.Func, error) {
	reduce, ok := reducers[orDefault(fn.Reduce, config.DefaultReduce)]
	if !ok {
		return nil, fmt.Errorf("compute: unknown reduce %q", fn.Reduce)
	}
	if fn.Unit != "" && !fn.Unit.Valid() {
		return nil, fmt.Errorf("compute: unknown unit %q", fn.Unit)
	}
	unit := fn.Unit
	if unit == "" {
		unit = types.UnitCount
	}

	switch fn.Name {
	case "average":
		return over(reduce, unit, mean), nil
	case "sum":
		return over(reduce, unit, sum), nil
	case "max":
		return over(reduce, unit, maxOf), nil
	case "min":
		return over(reduce, unit, minOf), nil

	case "ratio":
		if inputs != 2 {
			return nil, fmt.Errorf("compute: ratio needs exactly 2 inputs, got %d", inputs)
		}
		scale := fn.Scale
		if scale == 0 {
			scale = 1
		}
		return ratio(reduce, unit, scale), nil

	case "weighted_sum":
		if len(fn.Weights) != inputs {
			return nil, fmt.Errorf("compute: %d weights for %d inputs", len(fn.Weights), inputs)
		}
		return weightedSum(reduce, unit, slices.Clone(fn.Weights)), nil

	case "sla":
		if !slices.Contains(config.Operators, fn.Op) {
			return nil, fmt.Errorf("compute: unknown op %q", fn.Op)
		}
		return sla(reduce, fn.Op, fn.Threshold), nil

	case "statistics":
		return statistics(unit), nil

	default:
		return nil, fmt.Errorf("compute: unknown function %q", fn.Name)
	}
}

// over applies agg to the reduced scalar of every input that has data.
func over(reduce reducer, unit types.Unit, agg func([]float64) float64) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		vals := scalars(samples, reduce)
		if len(vals) == 0 {
			return types.Result{}, ErrNoData
		}
		return types.NewValue(agg(vals), unit), nil
	}
}

func ratio(reduce reducer, unit types.Unit, scale float64) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		num, ok1 := scalar(samples[0], reduce)
		den, ok2 := scalar(samples[1], reduce)
		if !ok1 || !ok2 {
			return types.Result{}, ErrNoData
		}
		if den == 0 {
			return types.Result{}, fmt.Errorf("ratio: denominator %s is zero", samples[1].Metric)
		}
		return types.NewValue(num/den*scale, unit), nil
	}
}

// weightedSum skips inputs without data; their weight does not contribute.
func weightedSum(reduce reducer, unit types.Unit, weights []float64) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		var total float64
		var seen int
		for i, s := range samples {
			v, ok := scalar(s, reduce)
			if !ok {
				continue
			}
			total += weights[i] * v
			seen++
		}
		if seen == 0 {
			return types.Result{}, ErrNoData
		}
		return types.NewValue(total, unit), nil
	}
}

// sla reports the percentage of inputs with data whose scalar satisfies
// "value op threshold".
func sla(reduce reducer, op string, threshold float64) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		vals := scalars(samples, reduce)
		if len(vals) == 0 {
			return types.Result{}, ErrNoData
		}
		var met int
		for _, v := range vals {
			if compareFloat(v, op, threshold) {
				met++
			}
		}
		pct := clamp(float64(met)/float64(len(vals))*100, 0, 100)
		return types.NewValue(pct, types.UnitPercent), nil
	}
}

// statistics summarises every datapoint of every input.
func statistics(unit types.Unit) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		st := types.Statistics{Max: math.Inf(-1), Min: math.Inf(1)}
		for _, s := range samples {
			for _, v := range s.Values() {
				st.Max = math.Max(st.Max, v)
				st.Min = math.Min(st.Min, v)
				st.Sum += v
				st.Count++
			}
		}
		if st.Count == 0 {
			return types.Result{}, ErrNoData
		}
		return types.NewStatistics(st, unit), nil
	}
}

func scalars(samples []types.Sample, reduce reducer) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := scalar(s, reduce); ok {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
