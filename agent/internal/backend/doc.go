// Package backend builds the monitoring backend client the agent's composites
// share.
//
// New(ctx, cfg) picks the implementation by cfg.Type:
//   - cloudwatch: pkg/backend/cloudwatch with the configured region and the
//     default AWS credential chain
//   - prometheus: pkg/backend/prometheus over an http.Client carrying the
//     configured auth (apikey | bearer | basic | mtls) and TLS options
//
// When rate_limit is set the client is wrapped in Limited, which waits on a
// golang.org/x/time/rate token bucket before every read and write.
package backend
