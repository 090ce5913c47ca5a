// Package config loads and validates the mealprep service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Providers ProvidersConfig `yaml:"providers"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Quota     QuotaConfig     `yaml:"quota,omitempty"`
	Events    EventsConfig    `yaml:"events,omitempty"`
	Refresh   RefreshConfig   `yaml:"refresh,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout Duration `yaml:"write_timeout,omitempty"`
}

// DatabaseConfig represents SQLite database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"` // file path, or ":memory:" for tests
}

// ProvidersConfig groups external nutrition/retail/LLM provider settings
type ProvidersConfig struct {
	USDA          ProviderConfig `yaml:"usda"`
	FatSecret     ProviderConfig `yaml:"fatsecret"`
	OpenFoodFacts ProviderConfig `yaml:"openfoodfacts"`
	Kroger        ProviderConfig `yaml:"kroger"`
	LLM           LLMConfig      `yaml:"llm"`
}

// ProviderConfig represents a single external API provider
type ProviderConfig struct {
	Enabled      bool     `yaml:"enabled"`
	BaseURL      string   `yaml:"base_url,omitempty"`
	APIKey       string   `yaml:"api_key,omitempty"`
	ClientID     string   `yaml:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty"`
	Timeout      Duration `yaml:"timeout,omitempty"`
}

// LLMConfig represents the instruction-generation LLM provider
type LLMConfig struct {
	Enabled     bool     `yaml:"enabled"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
}

// EventsConfig controls the optional NATS event publisher
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// RefreshConfig controls the periodic stale-record refresh job
type RefreshConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval,omitempty"`
	MaxAge   Duration `yaml:"max_age,omitempty"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from raw YAML, expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(15 * time.Second)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./mealprep.db"
	}

	applyProviderDefaults(&c.Providers.USDA, "https://api.nal.usda.gov/fdc/v1")
	applyProviderDefaults(&c.Providers.FatSecret, "https://platform.fatsecret.com/rest/server.api")
	applyProviderDefaults(&c.Providers.OpenFoodFacts, "https://world.openfoodfacts.org")
	applyProviderDefaults(&c.Providers.Kroger, "https://api.kroger.com/v1")

	if c.Providers.LLM.BaseURL == "" {
		c.Providers.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.Providers.LLM.Model == "" {
		c.Providers.LLM.Model = "gpt-4o-mini"
	}
	if c.Providers.LLM.MaxTokens == 0 {
		c.Providers.LLM.MaxTokens = 1000
	}
	if c.Providers.LLM.Temperature == 0 {
		c.Providers.LLM.Temperature = 0.7
	}
	if c.Providers.LLM.Timeout == 0 {
		c.Providers.LLM.Timeout = Duration(60 * time.Second)
	}

	if c.Events.Subject == "" {
		c.Events.Subject = "mealprep.events"
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = Duration(24 * time.Hour)
	}
	if c.Refresh.MaxAge == 0 {
		c.Refresh.MaxAge = Duration(30 * 24 * time.Hour)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	c.Retry.applyDefaults()
	c.Quota.applyDefaults()
}

func applyProviderDefaults(p *ProviderConfig, baseURL string) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.Timeout == 0 {
		p.Timeout = Duration(10 * time.Second)
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Providers.USDA.Enabled && c.Providers.USDA.APIKey == "" {
		return fmt.Errorf("providers.usda: api_key is required when enabled")
	}
	if c.Providers.FatSecret.Enabled && (c.Providers.FatSecret.ClientID == "" || c.Providers.FatSecret.ClientSecret == "") {
		return fmt.Errorf("providers.fatsecret: client_id and client_secret are required when enabled")
	}
	if c.Providers.Kroger.Enabled && (c.Providers.Kroger.ClientID == "" || c.Providers.Kroger.ClientSecret == "") {
		return fmt.Errorf("providers.kroger: client_id and client_secret are required when enabled")
	}
	if c.Providers.LLM.Enabled && c.Providers.LLM.APIKey == "" {
		return fmt.Errorf("providers.llm: api_key is required when enabled")
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events: nats_url is required when enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}

// DefaultYAML returns a starter configuration file used by the init command.
func DefaultYAML() string {
	return `# mealprep configuration
server:
  addr: ":8080"

database:
  path: "./mealprep.db"

providers:
  usda:
    enabled: true
    api_key: "${FDC_API_KEY}"
  fatsecret:
    enabled: false
    client_id: "${FATSECRET_CLIENT_ID}"
    client_secret: "${FATSECRET_CLIENT_SECRET}"
  openfoodfacts:
    enabled: true
  kroger:
    enabled: false
    client_id: "${KROGER_CLIENT_ID}"
    client_secret: "${KROGER_CLIENT_SECRET}"
  llm:
    enabled: false
    api_key: "${LLM_API_KEY}"
    model: "gpt-4o-mini"

retry:
  backoff: linear
  initial: 1s
  max: 30s
  max_retries: 2

quota:
  daily_calls: 1000
  min_interval: 100ms

refresh:
  enabled: false
  interval: 24h
  max_age: 720h

logging:
  level: info
  format: text
`
}
