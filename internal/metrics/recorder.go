package metrics

import "time"

// ResultLabel enumerates call result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultError   ResultLabel = "error"
	ResultDenied  ResultLabel = "denied" // quota refused the call
)

// Recorder defines observability hooks for provider and resolution metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder allows optional injection without nil checks at call sites.
type Recorder interface {
	ObserveProviderRequest(provider, operation string, d time.Duration, result ResultLabel)
	IncResolutionOutcome(source string) // source: usda|fatsecret|openfoodfacts|cache|unresolved
	ObserveResolutionDuration(d time.Duration)
	IncCacheHit(hit bool)
	IncCartPush(result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveProviderRequest(string, string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncResolutionOutcome(string)                                       {}
func (NoopRecorder) ObserveResolutionDuration(time.Duration)                           {}
func (NoopRecorder) IncCacheHit(bool)                                                  {}
func (NoopRecorder) IncCartPush(ResultLabel)                                           {}
