// Package metrics provides the Prometheus registry used by the dashboard
// client and proxy. Metrics are defined in their respective packages
// (client, cache, ratelimit, pagination) to keep packages independent; this
// package documents them and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the dashboard packages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - dashboard_api_requests_total{route, status} (Counter): upstream requests by route and status
//   - dashboard_api_request_duration_seconds{route} (Histogram): upstream request duration
//   - dashboard_api_errors_total{class} (Counter): errors by class (network, auth, client, server, rate_limit)
//   - dashboard_api_retries_total{error_class} (Counter): retry attempts
//   - dashboard_api_retry_backoff_seconds{error_class} (Histogram): backoff durations
//   - dashboard_api_retry_exhausted_total{error_class} (Counter): requests that exhausted retries
//
// Cache Metrics (pkg/cache):
//   - dashboard_cache_hits_total{layer="redis"} (Counter)
//   - dashboard_cache_misses_total (Counter)
//   - dashboard_cache_size_bytes{layer="redis"} (Gauge)
//   - dashboard_cache_304_responses_total (Counter)
//   - dashboard_cache_conditional_requests_total (Counter)
//   - dashboard_cache_invalidations_total (Counter): keys removed after writes
//   - dashboard_cache_errors_total{operation} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - dashboard_rate_limit_remaining (Gauge): requests remaining in the upstream window
//   - dashboard_rate_limit_blocks_total (Counter)
//   - dashboard_rate_limit_throttles_total (Counter)
//
// Pagination Metrics (pkg/pagination):
//   - dashboard_pagination_fetches_total{list, result} (Counter): page fetches by outcome (success, error, discarded)
//   - dashboard_pagination_fetch_duration_seconds{list} (Histogram)
//   - dashboard_pagination_resets_total{list} (Counter): query identity resets
//   - dashboard_pagination_step_backs_total{list} (Counter): cursor step-backs after removals
//
// Session Metrics (pkg/session):
//   - dashboard_session_authentications_total{operation, result} (Counter): login/register by result
//
// Proxy Metrics (cmd/dashboard-proxy):
//   - dashboard_proxy_auth_total{route, outcome} (Counter)
//
// Example Prometheus Queries:
//
//   # Upstream error rate
//   rate(dashboard_api_errors_total[5m])
//
//   # Fetches whose result was dropped by a reset
//   rate(dashboard_pagination_fetches_total{result="discarded"}[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(dashboard_api_request_duration_seconds_bucket[5m]))
