package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CanvasNodes tracks the current node count of the open document
	CanvasNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "canvas_nodes",
			Help: "Current number of nodes in the open document",
		},
	)

	// CanvasEdges tracks the current edge count of the open document
	CanvasEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "canvas_edges",
			Help: "Current number of edges in the open document",
		},
	)

	// CanvasMutationsTotal counts graph store mutations by entity and operation
	CanvasMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvas_mutations_total",
			Help: "Total graph store mutations",
		},
		[]string{"entity", "op"},
	)

	// CanvasWritesTotal counts persistence writes by entity and result
	CanvasWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvas_persist_writes_total",
			Help: "Total persistence writes issued by the scheduler",
		},
		[]string{"entity", "result"},
	)

	// CanvasWritesCoalescedTotal counts debounced writes superseded before firing
	CanvasWritesCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "canvas_persist_coalesced_total",
			Help: "Total pending writes superseded by a newer write to the same entity",
		},
	)

	// CanvasWriteDuration observes persistence write latency
	CanvasWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "canvas_persist_write_seconds",
			Help:    "Latency of persistence writes",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(CanvasNodes)
	prometheus.MustRegister(CanvasEdges)
	prometheus.MustRegister(CanvasMutationsTotal)
	prometheus.MustRegister(CanvasWritesTotal)
	prometheus.MustRegister(CanvasWritesCoalescedTotal)
	prometheus.MustRegister(CanvasWriteDuration)
}
