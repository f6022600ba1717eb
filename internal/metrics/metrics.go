package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	fallbackUsed *prometheus.CounterVec
	remoteErrors *prometheus.CounterVec
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	catalogItems *prometheus.GaugeVec
	coinSpends   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fallbackUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_used_total",
			Help:      "Operations served from local documents after a remote failure.",
		}, []string{"collection", "op"}),
		remoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_errors_total",
			Help:      "Remote store errors by collection and operation.",
		}, []string{"collection", "op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		catalogItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Products in the catalog by state.",
		}, []string{"state"}),
		coinSpends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coin_spends_total",
			Help:      "Coin spend attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fallbackUsed,
		m.remoteErrors,
		m.requests,
		m.duration,
		m.catalogItems,
		m.coinSpends,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// FallbackUsed counts an operation answered by the local documents.
func (m *Metrics) FallbackUsed(collection, op string) {
	m.fallbackUsed.WithLabelValues(collection, op).Inc()
}

// RemoteError counts a failed remote call.
func (m *Metrics) RemoteError(collection, op string) {
	m.remoteErrors.WithLabelValues(collection, op).Inc()
}

// ObserveRequest records one served request. route is the router pattern,
// not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetCatalogSize publishes the product counts from a stats read.
func (m *Metrics) SetCatalogSize(total, active int) {
	m.catalogItems.WithLabelValues("total").Set(float64(total))
	m.catalogItems.WithLabelValues("active").Set(float64(active))
}

// CoinSpend counts a spend attempt; accepted is false for insufficient balance.
func (m *Metrics) CoinSpend(accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "insufficient"
	}
	m.coinSpends.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
