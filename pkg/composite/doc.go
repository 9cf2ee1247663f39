// Package composite computes a derived ("composite") metric from a set of
// existing metrics in a monitoring backend and writes the result back as a new
// sample.
//
// New(inputs, output, fn, opts...) validates the configuration up front and
// returns a *Composite; any invalid descriptor, a nil function or a bad option
// is a *ConfigurationError.
//
// Each call to Composite.Run:
//
//  1. validates the period (default 60s, positive multiple of one minute);
//  2. derives the window [now-period, now];
//  3. reads every input concurrently, at most DefaultConcurrency at a time,
//     failing fast on the first read error (*FetchError);
//  4. calls fn once with the samples in input order (*AggregationError on
//     error or panic);
//  5. validates fn's result (ErrInvalidResult);
//  6. maps it onto a PublishRequest and writes it (*PublishError).
//
// Start and Go run the same pipeline asynchronously. Kind classifies any
// returned error. Nothing is retried and nothing is cached.
package composite
