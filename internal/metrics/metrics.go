package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestTotal counts dataset ingestions by source and result.
	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netexplorer_ingest_total",
		Help: "Total dataset ingestions by source and result",
	}, []string{"source", "result"})

	// IngestDuration tracks how long loading, normalizing and building a snapshot takes.
	IngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netexplorer_ingest_duration_seconds",
		Help:    "Dataset ingestion duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"source"})

	// SnapshotNodes and SnapshotEdges describe the published snapshot.
	SnapshotNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netexplorer_snapshot_nodes",
		Help: "Number of nodes in the published snapshot",
	})
	SnapshotEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netexplorer_snapshot_edges",
		Help: "Number of edges in the published snapshot",
	})

	// QueryTotal counts graph queries by kind and result.
	QueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netexplorer_query_total",
		Help: "Total graph queries by kind and result",
	}, []string{"query", "result"})

	// QueryDuration tracks graph query latency.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netexplorer_query_duration_seconds",
		Help:    "Graph query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"query"})

	// QueryResultSize tracks the number of nodes returned per query.
	QueryResultSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netexplorer_query_result_nodes",
		Help:    "Nodes returned per graph query",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"query"})

	// QueueMessages counts consumed queue messages by queue and result.
	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netexplorer_queue_messages_total",
		Help: "Consumed queue messages by queue and result",
	}, []string{"queue", "result"})
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultNoPath   = "no_path"
)

// ObserveQuery records one query outcome and its latency.
func ObserveQuery(query, result string, start time.Time, nodes int) {
	QueryTotal.WithLabelValues(query, result).Inc()
	QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if result == ResultOK {
		QueryResultSize.WithLabelValues(query).Observe(float64(nodes))
	}
}

// ObserveIngest records one ingestion outcome. On success the snapshot
// gauges are set to nodes and edges.
func ObserveIngest(source string, err error, start time.Time, nodes, edges int) {
	IngestDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		IngestTotal.WithLabelValues(source, ResultError).Inc()
		return
	}
	IngestTotal.WithLabelValues(source, ResultOK).Inc()
	SnapshotNodes.Set(float64(nodes))
	SnapshotEdges.Set(float64(edges))
}
