// Package config loads the service configuration from a YAML file
// with environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trapline-dev/trapline/internal/api"
	"github.com/trapline-dev/trapline/internal/session"
)

// Config represents the application configuration
type Config struct {
	// Server is the public API listener.
	Server api.Config `yaml:"server"`

	// ObservabilityPort serves health and metrics separately from the
	// API; zero disables the sidecar listener.
	ObservabilityPort int `yaml:"observability_port"`

	// Provider selects the model backend: "openai", "vertexai" or
	// "mock".
	Provider ProviderConfig `yaml:"provider"`

	// Detection tuning.
	Detection DetectionConfig `yaml:"detection"`

	// Redis is the primary session store.
	Redis session.RedisConfig `yaml:"redis"`

	// PostgresDSN enables the write-through audit store when set.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Tracing exporter selection.
	Tracing TracingConfig `yaml:"tracing"`
}

// ProviderConfig holds model backend settings.
type ProviderConfig struct {
	Name            string `yaml:"name"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	GCPProject      string `yaml:"gcp_project"`
	GCPLocation     string `yaml:"gcp_location"`
	ClassifierModel string `yaml:"classifier_model"`
	ReplyModel      string `yaml:"reply_model"`
}

// DetectionConfig tunes the scam detector.
type DetectionConfig struct {
	// Threshold overrides the default scam threshold when positive.
	Threshold float64 `yaml:"threshold"`
}

// TracingConfig selects the trace exporter: "otlp", "stdout" or
// "none".
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ExporterType string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// LoadConfig loads configuration from a YAML file. An empty path
// yields pure defaults, so the binary runs with no file at all.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 50
		c.Server.RateBurst = 100
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "openai"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Tracing.ExporterType == "" {
		c.Tracing.ExporterType = "stdout"
	}
}

// applyEnv fills secrets from the environment when the file leaves
// them empty, so credentials never have to live on disk.
func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Provider.GCPProject == "" {
		c.Provider.GCPProject = os.Getenv("GCP_PROJECT")
	}
	if c.Redis.Password == "" {
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if c.PostgresDSN == "" {
		c.PostgresDSN = os.Getenv("POSTGRES_DSN")
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "openai":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider %q requires an api key (config or OPENAI_API_KEY)", c.Provider.Name)
		}
	case "vertexai":
		if c.Provider.GCPProject == "" {
			return fmt.Errorf("provider %q requires gcp_project (config or GCP_PROJECT)", c.Provider.Name)
		}
	case "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}

	if c.Detection.Threshold < 0 || c.Detection.Threshold > 1 {
		return fmt.Errorf("detection threshold %v out of [0,1]", c.Detection.Threshold)
	}
	return nil
}
