package config

import "strings"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// RetryConfig holds backoff settings for transient provider failures.
type RetryConfig struct {
	Backoff    string   `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    Duration `yaml:"initial,omitempty"`
	Max        Duration `yaml:"max,omitempty"`
	MaxRetries int      `yaml:"max_retries,omitempty"`
}

func (r *RetryConfig) applyDefaults() {
	if r.Backoff == "" {
		r.Backoff = string(RetryBackoffLinear)
	}
	if r.Initial == 0 {
		r.Initial = Duration(1e9) // 1s
	}
	if r.Max == 0 {
		r.Max = Duration(30e9) // 30s
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 2
	}
}
