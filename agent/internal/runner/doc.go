// Package runner turns the agent configuration into scheduled composites.
//
// New builds a composite.Composite per configured entry, with its aggregation
// function from the compute package and the shared backend client. Run starts
// one loop per composite: run now, then once per interval, each run bounded by
// a timeout of one interval. RunOnce runs everything a single time and joins
// the errors, which backs the agent's -once flag.
//
// After every run the outcome goes to telemetry.Metrics and status.Store when
// they are configured.
package runner
