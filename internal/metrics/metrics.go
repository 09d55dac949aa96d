// Package metrics exposes process-level prometheus counters for the
// ingestion pipeline, layered on top of the feed handler's own snapshot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ticks_received_total", Help: "Trade records received from the feed"},
	)
	TicksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_processed_total", Help: "Ticks appended to history and dispatched"},
		[]string{"symbol"},
	)
	CallbackFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "callback_failures_total", Help: "Tick callbacks that panicked during dispatch"},
	)
	Reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reconnects_total", Help: "Unexpected feed connection drops"},
	)
	KafkaPublished = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "kafka_published_total", Help: "Ticks published to Kafka"},
	)
	KafkaFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "kafka_failures_total", Help: "Tick publishes that Kafka rejected"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksReceived, TicksProcessed, CallbackFailures,
		Reconnects, KafkaPublished, KafkaFailures,
	)
}

// Serve starts the /metrics endpoint in the background and returns the server
// so callers can close it on shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
