package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NodeVisits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_node_visits_total",
		Help: "Total number of node entries, labelled by module and node type.",
	}, []string{"module_id", "node_type"})

	OverlaysOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_overlays_opened_total",
		Help: "Total number of overlay routers opened, labelled by module.",
	}, []string{"module_id"})

	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_completions_total",
		Help: "Total number of finished passes through a module.",
	}, []string{"module_id"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_transitions_total",
		Help: "Total number of navigation requests, labelled by operation and outcome.",
	}, []string{"operation", "outcome"})

	ChoicesBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_choices_blocked_total",
		Help: "Total number of router choices rejected by strict condition gating.",
	})

	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_persistence_failures_total",
		Help: "Total number of failed writes, labelled by store.",
	}, []string{"store"})

	ModuleReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_module_reloads_total",
		Help: "Total number of module documents reloaded from disk.",
	})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathway_operation_duration_ms",
		Help:    "Engine operation latency in milliseconds, session lock included.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
	}, []string{"operation"})
)
