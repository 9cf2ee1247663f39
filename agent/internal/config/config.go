package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultBackend     = "cloudwatch"
	DefaultRegion      = composite.DefaultRegion
	DefaultConcurrency = composite.DefaultConcurrency
	DefaultHTTPPort    = 9464
	DefaultStatusTTL   = time.Hour
	DefaultStream      = 5 * time.Second
	DefaultInterval    = time.Minute
	DefaultPeriod      = composite.DefaultPeriod
	DefaultJob         = "composite"
	DefaultBurst       = 1
	DefaultAPIHeader   = "X-API-Key"
	DefaultReduce      = "latest"
)

// Backend types.
const (
	BackendCloudWatch = "cloudwatch"
	BackendPrometheus = "prometheus"
)

// Function names understood by the compute package.
var FunctionNames = []string{"average", "sum", "max", "min", "ratio", "weighted_sum", "sla", "statistics"}

// Reduce modes understood by the compute package.
var ReduceModes = []string{"latest", "mean", "sum", "max", "min"}

// Comparison operators accepted by the sla function.
var Operators = []string{">", ">=", "<", "<=", "=="}

// Config is the top-level agent configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	// Backend selects and configures the monitoring backend every composite
	// reads from and writes to.
	Backend BackendConfig `yaml:"backend"`

	// Concurrency bounds the reads in flight per composite run.
	Concurrency int `yaml:"concurrency"`

	// HTTPPort serves /metrics and the status API.
	HTTPPort int `yaml:"http_port"`

	// StatusTTL evicts status entries for composites that stopped reporting.
	StatusTTL time.Duration `yaml:"status_ttl"`

	// StreamInterval is how often /api/v1/stream pushes a snapshot.
	StreamInterval time.Duration `yaml:"stream_interval"`

	// APIAuth protects the status API.
	APIAuth APIAuthConfig `yaml:"api_auth"`

	// Tracing configures the OpenTelemetry exporter.
	Tracing TracingConfig `yaml:"tracing"`

	// Composites is the list of derived metrics to compute.
	Composites []Composite `yaml:"composites"`
}

// BackendConfig selects the backend client.
type BackendConfig struct {
	// Type is one of: cloudwatch | prometheus.
	Type string `yaml:"type"`

	// Region is the AWS region for the cloudwatch backend.
	Region string `yaml:"region"`

	// RateLimit caps backend calls per second across all composites.
	// Zero disables the cap.
	RateLimit float64 `yaml:"rate_limit"`

	// Burst is the limiter bucket size. Only used when RateLimit > 0.
	Burst int `yaml:"burst"`

	// Prometheus holds the prometheus backend settings.
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// PrometheusConfig configures the Prometheus reader and Pushgateway writer.
type PrometheusConfig struct {
	// Address is the Prometheus HTTP API base URL.
	Address string `yaml:"address"`

	// Pushgateway is the Pushgateway base URL composites are pushed to.
	Pushgateway string `yaml:"pushgateway"`

	// Job is the Pushgateway job label.
	Job string `yaml:"job"`

	// Auth configures how the agent authenticates to both endpoints.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for an HTTP backend.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// API key fields, used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv holds the bearer token variable name, used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields, used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string { return env(a.KeyEnv) }

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string { return env(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return env(a.PasswordEnv) }

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// APIAuthConfig configures status API authentication.
type APIAuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header carries the key. Defaults to X-API-Key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the expected API key resolved from the environment.
func (a APIAuthConfig) Key() string { return env(a.KeyEnv) }

// TracingConfig selects the span exporter.
type TracingConfig struct {
	// Exporter is one of: none | stdout | otlp.
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP/HTTP collector URL. Empty uses the exporter default.
	Endpoint string `yaml:"endpoint"`
}

// Composite describes one derived metric.
type Composite struct {
	// Name identifies the composite in logs, metrics and the status API.
	Name string `yaml:"name"`

	// Interval is how often the composite runs.
	Interval time.Duration `yaml:"interval"`

	// Period is the window every input is read over. Must be a multiple of 60s.
	Period time.Duration `yaml:"period"`

	// Function selects and parameterises the aggregation.
	Function Function `yaml:"function"`

	// Inputs are the source metrics, in the order the function sees them.
	Inputs []types.MetricDescriptor `yaml:"inputs"`

	// Output is the metric the result is written to.
	Output types.MetricDescriptor `yaml:"output"`
}

// Function names a built-in aggregation function and its parameters.
type Function struct {
	// Name is one of FunctionNames.
	Name string `yaml:"name"`

	// Unit of the result. Empty picks the function's default.
	Unit types.Unit `yaml:"unit"`

	// Reduce turns each input's datapoints into one scalar: latest | mean |
	// sum | max | min.
	Reduce string `yaml:"reduce"`

	// Weights are the per-input factors for weighted_sum.
	Weights []float64 `yaml:"weights"`

	// Scale multiplies the ratio. Zero means 1.
	Scale float64 `yaml:"scale"`

	// Threshold and Op define the sla condition "value Op Threshold".
	Threshold float64 `yaml:"threshold"`
	Op        string  `yaml:"op"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a config document.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	applyCompositeDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			Type:   DefaultBackend,
			Region: DefaultRegion,
			Burst:  DefaultBurst,
			Prometheus: PrometheusConfig{
				Job: DefaultJob,
			},
		},
		Concurrency:    DefaultConcurrency,
		HTTPPort:       DefaultHTTPPort,
		StatusTTL:      DefaultStatusTTL,
		StreamInterval: DefaultStream,
		APIAuth:        APIAuthConfig{Header: DefaultAPIHeader},
		Tracing:        TracingConfig{Exporter: "none"},
	}
}

// applyCompositeDefaults fills per-composite fields that cannot be
// pre-populated before decoding a list.
func applyCompositeDefaults(cfg *Config) {
	for i := range cfg.Composites {
		c := &cfg.Composites[i]
		if c.Interval == 0 {
			c.Interval = DefaultInterval
		}
		if c.Period == 0 {
			c.Period = DefaultPeriod
		}
		if c.Function.Reduce == "" {
			c.Function.Reduce = DefaultReduce
		}
		if c.Function.Scale == 0 {
			c.Function.Scale = 1
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Backend.Type {
	case BackendCloudWatch:
		if strings.TrimSpace(cfg.Backend.Region) == "" {
			return fmt.Errorf("backend.region is required for cloudwatch")
		}
	case BackendPrometheus:
		p := cfg.Backend.Prometheus
		if p.Address == "" {
			return fmt.Errorf("backend.prometheus.address is required")
		}
		if p.Pushgateway == "" {
			return fmt.Errorf("backend.prometheus.pushgateway is required")
		}
		switch p.Auth.Mode {
		case "mtls", "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("backend.prometheus.auth: unknown mode %q", p.Auth.Mode)
		}
	default:
		return fmt.Errorf("backend.type: unknown type %q", cfg.Backend.Type)
	}
	if cfg.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit must not be negative")
	}
	if cfg.Backend.RateLimit > 0 && cfg.Backend.Burst < 1 {
		return fmt.Errorf("backend.burst must be at least 1")
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", cfg.HTTPPort)
	}
	if cfg.StatusTTL <= 0 {
		return fmt.Errorf("status_ttl must be positive")
	}
	if cfg.StreamInterval <= 0 {
		return fmt.Errorf("stream_interval must be positive")
	}
	switch cfg.APIAuth.Mode {
	case "apikey":
		if cfg.APIAuth.KeyEnv == "" {
			return fmt.Errorf("api_auth.key_env is required for apikey mode")
		}
	case "none", "":
	default:
		return fmt.Errorf("api_auth: unknown mode %q", cfg.APIAuth.Mode)
	}
	switch cfg.Tracing.Exporter {
	case "none", "", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing: unknown exporter %q", cfg.Tracing.Exporter)
	}

	seen := make(map[string]bool, len(cfg.Composites))
	for i, c := range cfg.Composites {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("composites[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("composites[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if err := validateComposite(c); err != nil {
			return fmt.Errorf("composites[%d] %q: %w", i, c.Name, err)
		}
	}
	return nil
}

func validateComposite(c Composite) error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("at least one input is required")
	}
	if err := composite.ValidateDescriptors(c.Inputs); err != nil {
		return err
	}
	if err := composite.ValidateDescriptor(c.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if err := composite.ValidatePeriod(c.Period); err != nil {
		return fmt.Errorf("period: %w", err)
	}

	f := c.Function
	if !slices.Contains(FunctionNames, f.Name) {
		return fmt.Errorf("function: unknown name %q", f.Name)
	}
	if !slices.Contains(ReduceModes, f.Reduce) {
		return fmt.Errorf("function: unknown reduce %q", f.Reduce)
	}
	if f.Unit != "" && !f.Unit.Valid() {
		return fmt.Errorf("function: unknown unit %q", f.Unit)
	}
	switch f.Name {
	case "ratio":
		if len(c.Inputs) != 2 {
			return fmt.Errorf("function: ratio needs exactly 2 inputs, got %d", len(c.Inputs))
		}
	case "weighted_sum":
		if len(f.Weights) != len(c.Inputs) {
			return fmt.Errorf("function: %d weights for %d inputs", len(f.Weights), len(c.Inputs))
		}
	case "sla":
		if !slices.Contains(Operators, f.Op) {
			return fmt.Errorf("function: unknown op %q", f.Op)
		}
	}
	return nil
}

func env(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
