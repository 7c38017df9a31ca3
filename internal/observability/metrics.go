package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for HedgePool.
type Metrics struct {
	// --- Pool operations ---
	PoolOpsApplied  *prometheus.CounterVec
	PoolOpsRejected *prometheus.CounterVec
	PoolOpDuration  *prometheus.HistogramVec
	PoolSequence    prometheus.Gauge

	// --- Aggregates ---
	TotalMargin       prometheus.Gauge
	TotalExposure     prometheus.Gauge
	ActiveHedgers     prometheus.Gauge
	OpenPositions     prometheus.Gauge

	// --- Liquidation ---
	CommitmentsOpened   prometheus.Counter
	LiquidationsExecuted prometheus.Counter
	CommitmentsCancelled prometheus.Counter
	CommitmentsExpired   prometheus.Counter
	LiquidationRewardPaid prometheus.Counter

	// --- Rewards ---
	RewardsClaimed      prometheus.Counter
	RewardAmountClaimed prometheus.Counter

	// --- Channels & backpressure ---
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec
	PublishDrops       prometheus.Counter
	PersistBackpressure prometheus.Counter

	// --- Oracle ---
	OraclePriceUpdates prometheus.Counter
	OracleStaleReads   prometheus.Counter
	OraclePrice        prometheus.Gauge

	// --- Persistence ---
	PersistEventsWritten prometheus.Counter
	PersistBatchSize     prometheus.Histogram
	PersistBatchDur      prometheus.Histogram
	PersistErrors        *prometheus.CounterVec
	PersistRetry         prometheus.Counter
	PersistLastSequence  prometheus.Gauge

	// --- Snapshot ---
	SnapshotTaken    prometheus.Counter
	SnapshotDuration prometheus.Histogram
	SnapshotLastSeq  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		PoolOpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hedge_pool_ops_applied_total",
			Help: "Pool operations successfully applied",
		}, []string{"op"}),

		PoolOpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hedge_pool_ops_rejected_total",
			Help: "Pool operations rejected (validation, auth, pause)",
		}, []string{"op", "reason"}),

		PoolOpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hedge_pool_op_duration_seconds",
			Help:    "Time to apply a single pool operation",
			Buckets: latencyBuckets,
		}, []string{"op"}),

		PoolSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_pool_sequence",
			Help: "Current event log sequence number",
		}),

		TotalMargin: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_pool_total_margin",
			Help: "Sum of margin across active positions",
		}),

		TotalExposure: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_pool_total_exposure",
			Help: "Sum of notional exposure across active positions",
		}),

		ActiveHedgers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_pool_active_hedgers",
			Help: "Hedgers that have opened at least one position",
		}),

		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_pool_open_positions",
			Help: "Currently active positions",
		}),

		CommitmentsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_liquidation_commitments_total",
			Help: "Liquidation commitments recorded",
		}),

		LiquidationsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_liquidations_executed_total",
			Help: "Liquidations executed via reveal",
		}),

		CommitmentsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_commitments_cancelled_total",
			Help: "Commitments cancelled by committer",
		}),

		CommitmentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_commitments_expired_total",
			Help: "Stale commitments cleared",
		}),

		LiquidationRewardPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_liquidation_reward_paid_total",
			Help: "Total liquidator reward paid out",
		}),

		RewardsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_rewards_claimed_total",
			Help: "Reward claim operations",
		}),

		RewardAmountClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_reward_amount_claimed_total",
			Help: "Total reward amount claimed",
		}),

		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hedge_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hedge_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hedge_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_publish_drops_total",
			Help: "Events dropped due to full publish channel",
		}),

		PersistBackpressure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_persist_backpressure_total",
			Help: "Times the pool blocked on the persist channel",
		}),

		OraclePriceUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_oracle_price_updates_total",
			Help: "Price updates accepted from the feed",
		}),

		OracleStaleReads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_oracle_stale_reads_total",
			Help: "Price reads rejected as stale or unset",
		}),

		OraclePrice: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_oracle_price",
			Help: "Last accepted oracle price (scaled)",
		}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_persist_events_written_total",
			Help: "Events written to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hedge_persist_batch_size",
			Help:    "Events per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hedge_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hedge_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_persist_retry_total",
			Help: "Persistence retries",
		}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_persist_last_sequence",
			Help: "Last persisted sequence",
		}),

		SnapshotTaken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hedge_snapshot_taken_total",
			Help: "Snapshots created",
		}),

		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hedge_snapshot_duration_seconds",
			Help:    "Snapshot creation time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),

		SnapshotLastSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hedge_snapshot_last_sequence",
			Help: "Sequence of last snapshot",
		}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
