// Package quota enforces outbound call budgets for external providers.
package quota

import (
	"sync"
	"time"
)

// LimitError indicates a provider call budget has been exceeded
type LimitError struct {
	Provider   string
	Current    int64
	Maximum    int64
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *LimitError) Error() string {
	return "quota limit exceeded: " + e.Provider
}

// Limits defines outbound call limits for a provider
type Limits struct {
	DailyCalls  int64         // Maximum calls per 24 hours, 0 = unlimited
	MinInterval time.Duration // Minimum spacing between calls, 0 = none
}

// providerUsage tracks current usage for a provider
type providerUsage struct {
	callsToday    int64
	lastCall      time.Time
	lastResetTime time.Time
}

// Manager tracks usage against limits for all providers
type Manager struct {
	limits map[string]Limits
	usage  map[string]*providerUsage
	now    func() time.Time
	mu     sync.Mutex
}

// NewManager creates a new quota manager
func NewManager() *Manager {
	return &Manager{
		limits: make(map[string]Limits),
		usage:  make(map[string]*providerUsage),
		now:    time.Now,
	}
}

// SetLimits sets limits for a provider
func (m *Manager) SetLimits(provider string, limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.limits[provider] = limits
	if _, ok := m.usage[provider]; !ok {
		m.usage[provider] = &providerUsage{lastResetTime: m.now()}
	}
}

// Limits retrieves limits for a provider
func (m *Manager) Limits(provider string) (Limits, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limits, ok := m.limits[provider]
	return limits, ok
}

// Allow checks whether a call to the provider may proceed now and, if so,
// records it. Providers with no configured limits are always allowed.
func (m *Manager) Allow(provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	limits, ok := m.limits[provider]
	if !ok {
		return nil
	}

	usage, ok := m.usage[provider]
	if !ok {
		usage = &providerUsage{lastResetTime: m.now()}
		m.usage[provider] = usage
	}

	now := m.now()

	// Daily window reset
	if now.Sub(usage.lastResetTime) >= 24*time.Hour {
		usage.callsToday = 0
		usage.lastResetTime = now
	}

	if limits.DailyCalls > 0 && usage.callsToday >= limits.DailyCalls {
		return &LimitError{
			Provider:   provider,
			Current:    usage.callsToday,
			Maximum:    limits.DailyCalls,
			RetryAfter: usage.lastResetTime.Add(24 * time.Hour).Sub(now),
		}
	}

	if limits.MinInterval > 0 && !usage.lastCall.IsZero() {
		elapsed := now.Sub(usage.lastCall)
		if elapsed < limits.MinInterval {
			return &LimitError{
				Provider:   provider,
				Current:    usage.callsToday,
				Maximum:    limits.DailyCalls,
				RetryAfter: limits.MinInterval - elapsed,
			}
		}
	}

	usage.callsToday++
	usage.lastCall = now
	return nil
}

// Usage returns the calls recorded today for a provider.
func (m *Manager) Usage(provider string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if usage, ok := m.usage[provider]; ok {
		return usage.callsToday
	}
	return 0
}
