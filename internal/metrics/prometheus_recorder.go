package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	providerDuration   *prom.HistogramVec
	providerResults    *prom.CounterVec
	resolutionOutcome  *prom.CounterVec
	resolutionDuration prom.Histogram
	cacheHits          *prom.CounterVec
	cartPushes         *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.providerDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mealprep",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of external provider requests",
			Buckets:   prom.DefBuckets,
		}, []string{"provider", "operation"})
		pr.providerResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mealprep",
			Name:      "provider_requests_total",
			Help:      "Provider request counts by outcome",
		}, []string{"provider", "operation", "result"})
		pr.resolutionOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mealprep",
			Name:      "resolution_outcomes_total",
			Help:      "Ingredient resolution outcomes by winning source",
		}, []string{"source"})
		pr.resolutionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mealprep",
			Name:      "resolution_duration_seconds",
			Help:      "Total ingredient resolution duration including fallbacks",
			Buckets:   prom.DefBuckets,
		})
		pr.cacheHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mealprep",
			Name:      "food_cache_lookups_total",
			Help:      "Food record cache lookups by hit/miss",
		}, []string{"result"})
		pr.cartPushes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mealprep",
			Name:      "cart_pushes_total",
			Help:      "Shopping list cart pushes by outcome",
		}, []string{"result"})

		reg.MustRegister(
			pr.providerDuration,
			pr.providerResults,
			pr.resolutionOutcome,
			pr.resolutionDuration,
			pr.cacheHits,
			pr.cartPushes,
		)
	})
	return pr
}

// ObserveProviderRequest records one external API request.
func (pr *PrometheusRecorder) ObserveProviderRequest(provider, operation string, d time.Duration, result ResultLabel) {
	pr.providerDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
	pr.providerResults.WithLabelValues(provider, operation, string(result)).Inc()
}

// IncResolutionOutcome counts which source won a resolution (or "unresolved").
func (pr *PrometheusRecorder) IncResolutionOutcome(source string) {
	pr.resolutionOutcome.WithLabelValues(source).Inc()
}

// ObserveResolutionDuration records end-to-end resolution time.
func (pr *PrometheusRecorder) ObserveResolutionDuration(d time.Duration) {
	pr.resolutionDuration.Observe(d.Seconds())
}

// IncCacheHit counts food record cache lookups.
func (pr *PrometheusRecorder) IncCacheHit(hit bool) {
	if hit {
		pr.cacheHits.WithLabelValues("hit").Inc()
	} else {
		pr.cacheHits.WithLabelValues("miss").Inc()
	}
}

// IncCartPush counts cart push attempts.
func (pr *PrometheusRecorder) IncCartPush(result ResultLabel) {
	pr.cartPushes.WithLabelValues(string(result)).Inc()
}
