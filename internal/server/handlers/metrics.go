package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/menumerge/pkg/scheduler"
)

const metricsNamespace = "menumerge"

// newMetricsRegistry registers collectors that read live values from the
// scheduler, broker, realtime hubs and cache on every scrape.
func (h *Handlers) newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	counter := func(name, help string, value func() float64) {
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, value))
	}
	gauge := func(name, help string, value func() float64) {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, value))
	}

	counter("cycles_total", "Reconciliation cycles run.", func() float64 {
		return float64(h.client.Status().Runs)
	})
	counter("cycle_failures_total", "Reconciliation cycles that failed.", func() float64 {
		return float64(h.client.Status().Failures)
	})
	counter("cycles_skipped_total", "Ticks skipped because a cycle was running.", func() float64 {
		return float64(h.client.Status().Skipped)
	})
	gauge("cycle_running", "Whether a cycle is running.", func() float64 {
		if h.client.Status().State == scheduler.StateRunning {
			return 1
		}
		return 0
	})
	gauge("last_cycle_finish_seconds", "Unix time the last cycle finished, 0 before the first.", func() float64 {
		if finish := h.client.Status().LastFinish; finish != nil {
			return float64(finish.Unix())
		}
		return 0
	})

	counter("events_published_total", "Events published to subscribers.", func() float64 {
		return float64(h.broker.EventsPublished())
	})
	counter("events_dropped_total", "Events dropped on a full queue.", func() float64 {
		return float64(h.broker.EventsDropped())
	})
	gauge("websocket_clients", "Connected WebSocket clients.", func() float64 {
		return float64(h.wsHub.ClientCount())
	})
	gauge("sse_clients", "Connected SSE clients.", func() float64 {
		return float64(h.sseBroadcaster.ClientCount())
	})

	counter("cache_hits_total", "Snapshot response cache hits.", func() float64 {
		return float64(h.cache.GetStats().Hits)
	})
	counter("cache_misses_total", "Snapshot response cache misses.", func() float64 {
		return float64(h.cache.GetStats().Misses)
	})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Metrics returns the GET /metrics handler in the Prometheus exposition format.
func (h *Handlers) Metrics() http.Handler {
	return promhttp.HandlerFor(h.metrics, promhttp.HandlerOpts{
		ErrorLog: promLogger{h},
	})
}

// promLogger routes exposition errors into the request logger.
type promLogger struct{ h *Handlers }

func (l promLogger) Println(v ...any) {
	l.h.logger.Error().Interface("detail", v).Msg("Metrics exposition failed")
}
