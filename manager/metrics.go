package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache and queue label values
const (
	fileLabel     = "file"
	resourceLabel = "resource"
)

// Metrics holds the Prometheus collectors of one Manager.
//
// Metrics:
//   - resmgr_cache_hits_total / resmgr_cache_misses_total by cache
//   - resmgr_cache_entries by cache
//   - resmgr_loads_total by stage and result
//   - resmgr_queue_depth by queue
//   - resmgr_abandoned_total by queue
//   - resmgr_decode_duration_seconds
type Metrics struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEntries   *prometheus.GaugeVec
	loads          *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
	abandoned      *prometheus.CounterVec
	decodeDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resmgr",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resmgr",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"cache"}),
		cacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "resmgr",
			Name:      "cache_entries",
			Help:      "Current number of entries in cache",
		}, []string{"cache"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resmgr",
			Name:      "loads_total",
			Help:      "Completed loads by stage (file, resource) and result (ok, error)",
		}, []string{"stage", "result"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "resmgr",
			Name:      "queue_depth",
			Help:      "Items waiting in a worker queue",
		}, []string{"queue"}),
		abandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resmgr",
			Name:      "abandoned_total",
			Help:      "Queued items dropped at shutdown",
		}, []string{"queue"}),
		decodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resmgr",
			Name:      "decode_duration_seconds",
			Help:      "Time spent in the decoder",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheHits,
			m.cacheMisses,
			m.cacheEntries,
			m.loads,
			m.queueDepth,
			m.abandoned,
			m.decodeDuration,
		)
	}
	return m
}

func (m *Metrics) recordHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) recordMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) setEntries(cache string, n int) {
	m.cacheEntries.WithLabelValues(cache).Set(float64(n))
}

func (m *Metrics) recordLoad(stage string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) setQueueDepth(queue string, n int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(n))
}

func (m *Metrics) recordAbandoned(queue string, n int) {
	m.abandoned.WithLabelValues(queue).Add(float64(n))
}

func (m *Metrics) observeDecode(d time.Duration) {
	m.decodeDuration.Observe(d.Seconds())
}
