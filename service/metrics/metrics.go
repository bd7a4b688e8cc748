package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
// All recording helpers are safe to call on a nil *Metrics.
type Metrics struct {
	// Activity API Metrics
	apiCallsTotal   *prometheus.CounterVec
	apiCallDuration *prometheus.HistogramVec

	// Poll Metrics
	pollTicksTotal       *prometheus.CounterVec
	pollTickDuration     *prometheus.HistogramVec
	activityFetchedTotal *prometheus.CounterVec
	activityNewTotal     *prometheus.CounterVec
	activitySkippedTotal *prometheus.CounterVec
	walletCursor         *prometheus.GaugeVec

	// Notification Metrics
	notificationsTotal   *prometheus.CounterVec
	notificationDuration *prometheus.HistogramVec

	// HTTP Metrics
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	sseActiveConnections *prometheus.GaugeVec
	sseEventsSent        *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   prometheus.Histogram
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Activity API Metrics
		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polymarket_api_calls_total",
				Help: "Total number of Polymarket API calls by method and status",
			},
			[]string{"method", "status"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polymarket_api_call_duration_seconds",
				Help:    "Duration of Polymarket API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),

		// Poll Metrics
		pollTicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poll_ticks_total",
				Help: "Total number of poll ticks by wallet and outcome",
			},
			[]string{"wallet_address", "status"},
		),
		pollTickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poll_tick_duration_seconds",
				Help:    "Duration of a single fetch-diff-notify tick in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"wallet_address"},
		),
		activityFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_fetched_total",
				Help: "Total number of activity records fetched",
			},
			[]string{"wallet_address"},
		),
		activityNewTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_new_total",
				Help: "Total number of activity records newer than the wallet cursor",
			},
			[]string{"wallet_address"},
		),
		activitySkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_skipped_total",
				Help: "Total number of activity records skipped",
			},
			[]string{"wallet_address", "reason"},
		),
		walletCursor: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wallet_cursor_timestamp_seconds",
				Help: "Latest activity timestamp seen per wallet",
			},
			[]string{"wallet_address"},
		),

		// Notification Metrics
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Total number of notification delivery attempts",
			},
			[]string{"sink", "status"},
		),
		notificationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notification_duration_seconds",
				Help:    "Duration of notification delivery in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"sink"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		sseActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sse_active_connections",
				Help: "Number of active SSE connections",
			},
			[]string{"wallet_address"},
		),
		sseEventsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sse_events_sent_total",
				Help: "Total number of SSE events sent",
			},
			[]string{"wallet_address", "event_type"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"status"},
		),
		natsPublishDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
	}
}

// Activity API metric helpers

// RecordAPICall records a Polymarket API call with duration.
func (m *Metrics) RecordAPICall(method, status string, duration float64) {
	if m == nil {
		return
	}
	m.apiCallsTotal.WithLabelValues(method, status).Inc()
	m.apiCallDuration.WithLabelValues(method).Observe(duration)
}

// Poll metric helpers

// RecordPollTick records the outcome and duration of one wallet tick.
func (m *Metrics) RecordPollTick(walletAddress, status string, duration float64) {
	if m == nil {
		return
	}
	m.pollTicksTotal.WithLabelValues(walletAddress, status).Inc()
	m.pollTickDuration.WithLabelValues(walletAddress).Observe(duration)
}

// RecordActivityFetched records records returned by the activity source.
func (m *Metrics) RecordActivityFetched(walletAddress string, count int) {
	if m == nil {
		return
	}
	m.activityFetchedTotal.WithLabelValues(walletAddress).Add(float64(count))
}

// RecordActivityNew records records newer than the wallet cursor.
func (m *Metrics) RecordActivityNew(walletAddress string, count int) {
	if m == nil {
		return
	}
	m.activityNewTotal.WithLabelValues(walletAddress).Add(float64(count))
}

// RecordActivitySkipped records skipped records.
func (m *Metrics) RecordActivitySkipped(walletAddress, reason string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.activitySkippedTotal.WithLabelValues(walletAddress, reason).Add(float64(count))
}

// SetWalletCursor records the current cursor of a wallet.
func (m *Metrics) SetWalletCursor(walletAddress string, cursor int64) {
	if m == nil {
		return
	}
	m.walletCursor.WithLabelValues(walletAddress).Set(float64(cursor))
}

// Notification metric helpers

// RecordNotification records a delivery attempt to a sink.
func (m *Metrics) RecordNotification(sink string, err error, duration float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.notificationsTotal.WithLabelValues(sink, status).Inc()
	m.notificationDuration.WithLabelValues(sink).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordSSEConnectionChange records a change in SSE connection count.
func (m *Metrics) RecordSSEConnectionChange(walletAddress string, delta float64) {
	if m == nil {
		return
	}
	m.sseActiveConnections.WithLabelValues(walletAddress).Add(delta)
}

// RecordSSEEventSent records an SSE event being sent.
func (m *Metrics) RecordSSEEventSent(walletAddress, eventType string) {
	if m == nil {
		return
	}
	m.sseEventsSent.WithLabelValues(walletAddress, eventType).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(status string, duration float64) {
	if m == nil {
		return
	}
	m.natsMessagesPublished.WithLabelValues(status).Inc()
	m.natsPublishDuration.Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
