// Package cloudwatch adapts the AWS CloudWatch API to the composite.Client
// interface.
//
// GetMetricStatistics issues one GetMetricStatistics request per descriptor with
// Period equal to the window length, so each series yields at most one
// datapoint per window. PutMetricData sends a single MetricDatum carrying either
// Value or StatisticValues and returns the AWS request ID.
//
// New disables SDK retries (aws.NopRetryer): throttling and transient errors
// reach the caller unchanged.
package cloudwatch
