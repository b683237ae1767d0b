// Package metrics exposes the loot pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one session. Each instance
// owns its registry so tests and multiple sessions never collide.
type Metrics struct {
	registry  *prometheus.Registry
	startTime time.Time

	lootEnqueued   prometheus.Counter
	lootDrained    *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	highlights     *prometheus.CounterVec
	rulesLoaded    *prometheus.GaugeVec
	uptimeSeconds  prometheus.Gauge
	goroutines     prometheus.Gauge
	memoryHeapSize prometheus.Gauge
}

// New creates and registers the collectors.
func New(startTime time.Time) *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: startTime,
		lootEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoloot_loot_enqueued_total",
			Help: "Items accepted into the loot queue.",
		}),
		lootDrained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoloot_loot_drained_total",
			Help: "Loot queue entries drained, by outcome.",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoloot_queue_depth",
			Help: "Entries waiting in the loot queue.",
		}),
		highlights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoloot_highlight_evaluations_total",
			Help: "Highlight evaluations, by result.",
		}, []string{"result"}),
		rulesLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoloot_rules_loaded",
			Help: "Rules currently loaded, by store.",
		}, []string{"store"}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoloot_uptime_seconds",
			Help: "Process uptime in seconds.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoloot_goroutines",
			Help: "Number of active goroutines.",
		}),
		memoryHeapSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autoloot_memory_heap_bytes",
			Help: "Go heap memory allocated in bytes.",
		}),
	}

	m.registry.MustRegister(
		m.lootEnqueued,
		m.lootDrained,
		m.queueDepth,
		m.highlights,
		m.rulesLoaded,
		m.uptimeSeconds,
		m.goroutines,
		m.memoryHeapSize,
	)
	return m
}

func (m *Metrics) LootEnqueued() {
	m.lootEnqueued.Inc()
}

func (m *Metrics) LootDrained(outcome string) {
	m.lootDrained.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) HighlightMatched(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.highlights.WithLabelValues(result).Inc()
}

// RulesLoaded records the rule count of a store ("highlight" or "autoloot").
func (m *Metrics) RulesLoaded(store string, n int) {
	m.rulesLoaded.WithLabelValues(store).Set(float64(n))
}

// Registry is the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Update refreshes the runtime gauges.
func (m *Metrics) Update() {
	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.memoryHeapSize.Set(float64(mem.HeapAlloc))
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// Handler returns an http.Handler that updates metrics before serving them.
func (m *Metrics) Handler() http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		inner.ServeHTTP(w, r)
	})
}
