package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ==========================================================================
	// HTTP Metrics
	// ==========================================================================
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// ==========================================================================
	// Database Metrics
	// ==========================================================================
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// ==========================================================================
	// Auction Lot Metrics
	// ==========================================================================
	LotBidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_lot_bids_total",
			Help: "Total number of setMaxBid calls by outcome",
		},
		[]string{"outcome"}, // accepted, rejected, conflict, idempotent_replay
	)

	LotBidAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auction_lot_bid_amount",
			Help:    "Distribution of accepted proxy bid amounts",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 150, 200, 300},
		},
		[]string{"draft_id"},
	)

	LotsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auction_lots_active_total",
			Help: "Number of currently active lots across all drafts",
		},
	)

	LotDeadlineExtensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_lot_deadline_extensions_total",
			Help: "Total number of bid deadline extensions",
		},
	)

	LotSettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_lot_settlements_total",
			Help: "Total number of lot settlements by outcome",
		},
		[]string{"outcome"}, // won, passed
	)

	NominationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_nominations_total",
			Help: "Total number of nominations by origin",
		},
		[]string{"origin"}, // user, auto
	)

	NominatorSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_nominator_skips_total",
			Help: "Total number of nominator turns skipped after a nomination timeout",
		},
	)

	DraftsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drafts_completed_total",
			Help: "Total number of drafts that reached completion",
		},
	)

	// ==========================================================================
	// Deadline Monitor Metrics
	// ==========================================================================
	MonitorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deadline_monitor_tick_duration_seconds",
			Help:    "Time to scan and dispatch one monitor tick",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	MonitorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deadline_monitor_queue_depth",
			Help: "Current depth of the monitor's dispatch queue",
		},
	)

	MonitorCASConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_lot_cas_conflicts_total",
			Help: "Total number of lot settlements that failed in the deadline monitor",
		},
	)

	// ==========================================================================
	// Event Bus Metrics
	// ==========================================================================
	EventBusSubscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventbus_subscribers_active",
			Help: "Number of active event bus subscribers",
		},
	)

	EventBusMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_sent_total",
			Help: "Total event bus messages delivered",
		},
		[]string{"event_type"},
	)

	EventBusSubscribersPerDraft = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventbus_subscribers_per_draft",
			Help:    "Number of subscribers per draft when publishing",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		},
	)

	OutbidNoticesThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_outbid_notices_throttled_total",
			Help: "Total number of outbid notices suppressed by the per-(roster,lot) throttle",
		},
	)
)
