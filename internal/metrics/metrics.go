// Package metrics exposes Prometheus collectors for the routing core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheRequests counts edge gateway requests by cache result:
	// hit, miss, or bypass.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_cache_requests_total",
		Help: "Edge gateway requests by cache result.",
	}, []string{"result"})

	// CacheStores counts asynchronous cache writes by outcome.
	CacheStores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edge_cache_stores_total",
		Help: "Asynchronous cache population attempts by outcome.",
	}, []string{"outcome"})

	// HostClassifications counts inbound hosts by classification kind.
	HostClassifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "host_classifications_total",
		Help: "Inbound request hosts by classification kind.",
	}, []string{"kind"})

	// ResolverOutcomes counts site resolution results: resolved,
	// not_found, skipped, or error.
	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "site_resolver_outcomes_total",
		Help: "Site resolution results by outcome.",
	}, []string{"outcome"})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
