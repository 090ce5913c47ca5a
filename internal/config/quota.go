package config

// QuotaConfig limits outbound calls per provider. DailyCalls of 0 disables the
// daily budget; MinInterval of 0 disables throttling.
type QuotaConfig struct {
	DailyCalls  int64    `yaml:"daily_calls,omitempty"`
	MinInterval Duration `yaml:"min_interval,omitempty"`
}

func (q *QuotaConfig) applyDefaults() {
	if q.DailyCalls == 0 {
		q.DailyCalls = 1000
	}
}
