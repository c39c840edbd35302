package pubsub

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are not registered by default; register the ones you want
// exported with your own prometheus.Registerer.
var (
	PromSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redutil_pubsub_subscriptions",
		Help: "Number of channel and pattern subscriptions confirmed by Redis",
	})
	PromSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redutil_pubsub_sessions",
		Help: "Number of subscription sessions currently running",
	})
	PromEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redutil_pubsub_events_total",
		Help: "Number of pub/sub frames received, by event type",
	}, []string{"type"})
	PromSessionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redutil_pubsub_session_errors_total",
		Help: "Number of sessions that ended with an error",
	})
	PromDispatchLatency = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "redutil_pubsub_dispatch_latency",
		Help: "Amount of time it last took a handler to process an event, in milliseconds",
	})
)

func gaugeLatency(g prometheus.Gauge) (stop func()) {
	start := time.Now()

	return func() {
		g.Set(float64(time.Since(start)) / float64(time.Millisecond))
	}
}
