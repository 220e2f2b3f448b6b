package metrics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors. All collectors are registered on a
// private registry so tests can create as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	Subscribers       prometheus.Gauge
	BroadcastTotal    *prometheus.CounterVec
	BroadcastFailures prometheus.Counter
	TickTotal         *prometheus.CounterVec
	AcquireTotal      *prometheus.CounterVec
	ReplayBuckets     prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_subscribers",
			Help: "Currently connected subscribers.",
		}),
		BroadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_broadcast_messages_total",
			Help: "Messages fanned out to subscribers, by message type.",
		}, []string{"type"}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_broadcast_failures_total",
			Help: "Subscriber sends that failed and removed the subscriber.",
		}),
		TickTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_scheduler_ticks_total",
			Help: "Scheduler ticks, by task.",
		}, []string{"task"}),
		AcquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_acquisitions_total",
			Help: "Acquisition attempts, by data kind and outcome.",
		}, []string{"kind", "outcome"}),
		ReplayBuckets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_replay_buckets_total",
			Help: "Time buckets emitted by the replay engine.",
		}),
	}

	reg.MustRegister(
		m.Subscribers,
		m.BroadcastTotal,
		m.BroadcastFailures,
		m.TickTotal,
		m.AcquireTotal,
		m.ReplayBuckets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics endpoint on its own listener. The returned
// server should be shut down by the caller.
func (m *Metrics) Serve(addr, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server stopped", "error", err)
		}
	}()
	return srv
}
