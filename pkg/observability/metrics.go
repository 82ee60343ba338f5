// Package observability declares the Prometheus collectors shared by the server,
// the vendor clients and the aggregation store.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "local_guide"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	VendorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "places",
		Name:      "requests_total",
		Help:      "Calls to the places vendor, by endpoint and status.",
	}, []string{"endpoint", "status"})

	VendorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "places",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the places vendor.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "cache_lookups_total",
		Help:      "Aggregation store cache lookups, by cache and result.",
	}, []string{"cache", "result"})

	FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "favorite_toggles_total",
		Help:      "Favorite toggles, by scope and outcome.",
	}, []string{"scope", "outcome"})
)

// ObserveVendorCall records one vendor round trip. A zero status means transport failure.
func ObserveVendorCall(endpoint string, status int, took time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	VendorRequestsTotal.WithLabelValues(endpoint, label).Inc()
	VendorRequestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// CacheHit and CacheMiss count lookups against a named store cache.
func CacheHit(cache string)  { CacheLookups.WithLabelValues(cache, "hit").Inc() }
func CacheMiss(cache string) { CacheLookups.WithLabelValues(cache, "miss").Inc() }

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
