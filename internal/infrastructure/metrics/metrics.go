// Package metrics собирает метрики сервиса для Prometheus
package metrics

import (
	"strconv"
	"time"

	"shift-tracker/internal/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shift_tracker"

// Metrics набор коллекторов сервиса
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	clockEvents        *prometheus.CounterVec
	geofenceRejections prometheus.Counter
	anomalies          *prometheus.CounterVec
	reconstructions    *prometheus.HistogramVec
}

// New создает и регистрирует коллекторы в reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		clockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_events_total",
			Help:      "Accepted clock events by kind.",
		}, []string{"kind"}),
		geofenceRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geofence_rejections_total",
			Help:      "Clock actions rejected for being outside the geofence.",
		}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstruction_anomalies_total",
			Help:      "Anomalies observed while reconstructing shifts.",
		}, []string{"kind"}),
		reconstructions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconstruction_duration_seconds",
			Help:      "Time spent fetching and reconstructing shifts per query.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.clockEvents,
		m.geofenceRejections,
		m.anomalies,
		m.reconstructions,
	)

	return m
}

// NewNop создает метрики на отдельном реестре, который никто не читает
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveHTTP учитывает обработанный HTTP запрос
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ClockEventAccepted учитывает сохраненную отметку
func (m *Metrics) ClockEventAccepted(kind entities.ClockKind) {
	m.clockEvents.WithLabelValues(string(kind)).Inc()
}

// GeofenceRejected учитывает отметку вне зоны
func (m *Metrics) GeofenceRejected() {
	m.geofenceRejections.Inc()
}

// ObserveAnomalies учитывает аномалии по видам
func (m *Metrics) ObserveAnomalies(anomalies []entities.Anomaly) {
	for kind, n := range entities.CountAnomalies(anomalies) {
		m.anomalies.WithLabelValues(string(kind)).Add(float64(n))
	}
}

// ObserveReconstruction учитывает время выполнения запроса к смене
func (m *Metrics) ObserveReconstruction(query string, elapsed time.Duration) {
	m.reconstructions.WithLabelValues(query).Observe(elapsed.Seconds())
}
