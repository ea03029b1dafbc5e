package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters. Registered on the default registry and exposed by the
// /metrics route.
var (
	SettlementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_settlements_created_total",
		Help: "Settlements created by the aggregator",
	})

	SettlementTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settleline_settlement_transitions_total",
		Help: "Settlement state transitions by target status",
	}, []string{"to"})

	PayoutsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_payouts_dispatched_total",
		Help: "Payouts submitted to the rail",
	})

	PayoutsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_payouts_settled_total",
		Help: "Payouts confirmed by the rail",
	})

	PayoutsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_payouts_failed_total",
		Help: "Payouts rejected or failed by the rail",
	})

	DisputesReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_disputes_reconciled_total",
		Help: "Resolved disputes consumed by the reconciler",
	})

	OrdersIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settleline_orders_ingested_total",
		Help: "Orders accepted from the completion feed",
	})
)
