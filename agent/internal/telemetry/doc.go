// Package telemetry instruments the agent itself.
//
// Metrics registers, per composite name:
//
//	composite_runs_total{composite,outcome}          counter
//	composite_run_duration_seconds{composite}        histogram
//	composite_last_success_timestamp_seconds{composite}
//	composite_last_value{composite}
//
// outcome is "success" or the composite.Kind of the failure, so a dashboard can
// split fetch, aggregation and publish errors. Handler serves them on /metrics.
//
// InitTracing installs an OpenTelemetry tracer provider with a stdout or
// OTLP/HTTP exporter. The composite library picks it up through the global
// provider and emits one span per run and one per input read.
package telemetry
