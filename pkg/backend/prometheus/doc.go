// Package prometheus adapts a Prometheus server and a Pushgateway to the
// composite.Client interface.
//
// Reads: each descriptor becomes one instant query evaluated at the window end,
//
//	<fn>_over_time(<namespace>_<name>{<dimension_name>="<dimension_value>"}[<period>s])
//
// with fn = count | avg | sum | min | max for SampleCount, Average, Sum,
// Minimum and Maximum. Names are sanitised to legal metric and label names.
//
// Writes: the composite is pushed to the Pushgateway (POST) under the
// configured job, grouped by the output dimension.
package prometheus
