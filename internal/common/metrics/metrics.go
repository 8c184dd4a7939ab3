// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_client_api_requests_total",
			Help: "Total number of REST requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bank_client_api_request_duration_seconds",
			Help:    "Duration of REST requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ChannelMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_client_channel_messages_total",
			Help: "Push notifications received, by processing result",
		},
		[]string{"result"},
	)

	ChannelReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bank_client_channel_reconnects_total",
			Help: "Number of push channel reconnect attempts",
		},
	)

	ChannelState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bank_client_channel_state",
			Help: "Current push channel state (0 idle, 1 connecting, 2 connected, 3 reconnecting, 4 closed)",
		},
	)

	SessionExpirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_client_session_expirations_total",
			Help: "Number of times the local session was cleared, by reason",
		},
		[]string{"reason"},
	)
)

// Message results.
const (
	ResultOK        = "ok"
	ResultMalformed = "malformed"
)
