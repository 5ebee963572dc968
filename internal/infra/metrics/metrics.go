// Package metrics метрики Prometheus для расчётов и HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
)

const namespace = "ecowardrobe"

// Metrics реализует scoring.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	itemsScored   *prometheus.CounterVec
	cartsScored   *prometheus.CounterVec
	scores        *prometheus.HistogramVec
	missing       *prometheus.CounterVec
	rangeComputes prometheus.Counter
	rangeDuration prometheus.Histogram
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New регистрирует метрики в reg; nil — глобальный реестр (promhttp.Handler).
func New(reg *prometheus.Registry) *Metrics {
	var (
		r prometheus.Registerer = prometheus.DefaultRegisterer
		g prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		r, g = reg, reg
	}
	f := promauto.With(r)

	return &Metrics{
		gatherer: g,
		itemsScored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_scored_total",
			Help:      "Scored items by profile and grade.",
		}, []string{"profile", "grade"}),
		scores: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_score",
			Help:      "Distribution of final item scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}, []string{"profile"}),
		cartsScored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_scored_total",
			Help:      "Scored carts by profile and grade.",
		}, []string{"profile", "grade"}),
		missing: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coefficient_missing_total",
			Help:      "Composition entries scored without an impact coefficient.",
		}, []string{"category"}),
		rangeComputes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "range_recomputes_total",
			Help:      "Dynamic range recomputations.",
		}),
		rangeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "range_recompute_seconds",
			Help:      "Time spent recomputing dynamic ranges.",
			Buckets:   prometheus.DefBuckets,
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status.",
		}, []string{"route", "method", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) ItemScored(profile, grade string, score float64) {
	m.itemsScored.WithLabelValues(profile, grade).Inc()
	m.scores.WithLabelValues(profile).Observe(score)
}

func (m *Metrics) CartScored(profile, grade string, _ int) {
	m.cartsScored.WithLabelValues(profile, grade).Inc()
}

// CoefficientMissing без метки материала: имена приходят из импорта.
func (m *Metrics) CoefficientMissing(category impacts.Category) {
	m.missing.WithLabelValues(string(category)).Inc()
}

// RangesComputed подключается через RangeCache.OnCompute.
func (m *Metrics) RangesComputed(d time.Duration) {
	m.rangeComputes.Inc()
	m.rangeDuration.Observe(d.Seconds())
}

func (m *Metrics) Request(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
