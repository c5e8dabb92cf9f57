// Package observability provides logging, metrics, and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alliancefeed_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SnapshotsApplied counts full snapshots applied by the feed engine.
	SnapshotsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alliancefeed_snapshots_applied_total",
		Help: "Total number of comment snapshots applied",
	})

	// SnapshotSize observes the number of comments per applied snapshot.
	SnapshotSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alliancefeed_snapshot_size_comments",
		Help:    "Number of comments in each applied snapshot",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// StreamErrors counts recoverable change stream failures.
	StreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alliancefeed_stream_errors_total",
		Help: "Total number of recoverable change stream errors",
	})

	// PublishOutcomes counts publish pipeline results by branch and outcome.
	PublishOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alliancefeed_publish_outcomes_total",
		Help: "Publish pipeline results by branch (create, edit, noop) and outcome",
	}, []string{"branch", "outcome"})

	// NotificationsSent counts fired new-comment notifications.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alliancefeed_notifications_sent_total",
		Help: "Total number of new-comment notifications fired",
	})

	// WebSocketConnections is the gauge of active feed WebSocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alliancefeed_websocket_connections",
		Help: "Number of active feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alliancefeed_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
