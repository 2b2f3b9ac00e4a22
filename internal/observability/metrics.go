package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service-level Prometheus collectors. HTTP latency
// histograms come from the fiberprometheus middleware; these cover what it
// cannot see.
type Metrics struct {
	requests      *prometheus.CounterVec
	errors        *prometheus.CounterVec
	imageCleanups *prometheus.CounterVec
	notifications *prometheus.CounterVec
	wsClients     prometheus.Gauge
	wsDrops       prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Requests handled by route, method and status.",
		}, []string{"route", "method", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_request_errors_total",
			Help: "Failed requests by route, method and error code.",
		}, []string{"route", "method", "code"}),
		imageCleanups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_image_cleanups_total",
			Help: "Image removals by result.",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_notifications_total",
			Help: "Post notifications published by action.",
		}, []string{"action"}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_websocket_clients",
			Help: "Connected websocket clients.",
		}),
		wsDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_websocket_drops_total",
			Help: "Messages dropped because a client send buffer was full.",
		}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordImageCleanup counts a removal attempt; err nil means success.
func (m *Metrics) RecordImageCleanup(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.imageCleanups.WithLabelValues(result).Inc()
}

// RecordNotification counts a published post notification.
func (m *Metrics) RecordNotification(action string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(action).Inc()
}

// ClientConnected tracks websocket connects.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.wsClients.Inc()
}

// ClientDisconnected tracks websocket disconnects.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.wsClients.Dec()
}

// RecordDrop counts a message dropped for a slow client.
func (m *Metrics) RecordDrop() {
	if m == nil {
		return
	}
	m.wsDrops.Inc()
}
