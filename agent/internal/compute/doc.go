// Package compute provides the built-in aggregation functions a composite can
// be configured with.
//
// Build(spec, inputs) turns a config.Function into a composite.Func. Each
// input sample is first reduced to one scalar (latest, mean, sum, max or min
// of its datapoints); inputs without datapoints are skipped. The reduced
// scalars then feed one of:
//
//	average, sum, max, min   Value over the scalars
//	ratio                    first / second * scale, exactly two inputs
//	weighted_sum             sum of weight[i] * scalar[i]
//	sla                      percent of inputs satisfying "scalar op threshold"
//	statistics               max, min, count and sum over every datapoint
//
// A function that finds no usable data returns ErrNoData, which the composite
// reports as an aggregation error. Every function is pure and safe for
// concurrent use.
package compute
