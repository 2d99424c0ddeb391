package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FixesProcessed   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "tour_guide", Name: "fixes_processed_total", Help: "Total location fixes processed"})
	AlertsFired      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "tour_guide", Name: "alerts_fired_total", Help: "Proximity alerts delivered"})
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{Namespace: "tour_guide", Name: "alerts_suppressed_total", Help: "Proximity alerts suppressed by an active grace period"})
	CheckoutsTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "tour_guide", Name: "checkouts_total", Help: "Experience checkouts started"})
	WSSessions       = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "tour_guide", Name: "ws_sessions", Help: "Connected WebSocket alert sessions"})

	GraceActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tour_guide", Name: "grace_activations_total", Help: "Grace period activations by reason"},
		[]string{"reason"},
	)
	GraceRefusals = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tour_guide", Name: "grace_refusals_total", Help: "Grace period activation refusals by rule"},
		[]string{"rule"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tour_guide", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tour_guide",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
