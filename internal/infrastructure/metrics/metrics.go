package metrics

import (
	"net/http"

	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zipher"

// SyncMetrics turns sync events into prometheus metrics.
type SyncMetrics struct {
	registry *prometheus.Registry

	passes            *prometheus.CounterVec
	blocksProcessed   prometheus.Counter
	newTransactions   prometheus.Counter
	skippedTxs        prometheus.Counter
	heightFallbacks   prometheus.Counter
	lastScannedHeight prometheus.Gauge
	chainHeight       prometheus.Gauge
}

// NewSyncMetrics returns the metrics registered in a dedicated registry,
// along with the go runtime and process collectors.
func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Number of sync passes by outcome.",
		}, []string{"outcome"}),
		blocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "blocks_processed_total",
			Help:      "Number of compact blocks trial-decrypted.",
		}),
		newTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "new_transactions_total",
			Help:      "Number of wallet transactions added to the history.",
		}),
		skippedTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "decryption_skips_total",
			Help:      "Number of matched transactions that couldn't be fetched or decrypted.",
		}),
		heightFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "height_fallbacks_total",
			Help:      "Number of times the chain tip was unavailable.",
		}),
		lastScannedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_scanned_height",
			Help:      "Height of the last block scanned by a completed pass.",
		}),
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "chain_height",
			Help:      "Chain tip height seen by the last pass.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.passes,
		m.blocksProcessed,
		m.newTransactions,
		m.skippedTxs,
		m.heightFallbacks,
		m.lastScannedHeight,
		m.chainHeight,
	)
	return m
}

func (m *SyncMetrics) Publish(event ports.SyncEvent) {
	switch event.Type {
	case ports.SyncStarted:
		m.chainHeight.Set(float64(event.Height))
	case ports.SyncProgress:
		// Progress is cumulative within a batch, only the final one is counted.
		if event.TotalBlocks > 0 && event.BlocksProcessed == event.TotalBlocks {
			m.blocksProcessed.Add(float64(event.TotalBlocks))
		}
	case ports.SyncCompleted:
		m.passes.WithLabelValues("completed").Inc()
		m.newTransactions.Add(float64(event.NewTransactions))
		if event.Height > 0 {
			m.lastScannedHeight.Set(float64(event.Height))
		}
	case ports.SyncFailed:
		m.passes.WithLabelValues("failed").Inc()
	case ports.StaleHeightFallback:
		m.heightFallbacks.Inc()
	case ports.DecryptionSkipped:
		m.skippedTxs.Inc()
	}
}

// Handler serves the metrics in the prometheus exposition format.
func (m *SyncMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry ...
func (m *SyncMetrics) Registry() *prometheus.Registry {
	return m.registry
}
