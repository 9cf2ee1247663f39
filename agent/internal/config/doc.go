// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config: backend, concurrency, http_port, status_ttl, api_auth, tracing,
//     composites []
//   - BackendConfig: type (cloudwatch|prometheus), region, rate_limit, burst,
//     prometheus {address, pushgateway, job, auth, tls}
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none), cert/key/ca files,
//     header, key_env, token_env, username, password_env; Key(), Token() and
//     Password() resolve secrets from environment variables
//   - Composite: name, interval, period, function, inputs [], output
//   - Function: name, unit, reduce, weights, scale, threshold, op
//
// Load(path) reads the YAML file, applies defaults (cloudwatch in us-east-1,
// concurrency 10, port 9464, 60s interval and period), then validates required
// fields and enums. Input and output descriptors are checked with the same
// rules composite.New applies, so a config that loads always builds.
//
// Watch(ctx, path, onChange) uses fsnotify on the parent directory to detect
// writes and atomic replacements, and calls onChange with the newly parsed
// Config. An invalid edit is logged and ignored.
package config
