package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type"},
	)

	ChannelEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_events_published_total",
			Help: "Total number of events published to the realtime channel",
		},
		[]string{"event"},
	)

	ChannelEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_events_dropped_total",
			Help: "Events dropped because a subscriber was too slow",
		},
	)

	ChannelSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channel_sessions",
			Help: "Currently connected realtime sessions",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key"},
	)
)

func IncrementNotificationsCreated(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}

func IncrementChannelEventsPublished(event string) {
	ChannelEventsPublished.WithLabelValues(event).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordMQConsumeLatency(routingKey string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey).Observe(float64(duration.Milliseconds()))
}
