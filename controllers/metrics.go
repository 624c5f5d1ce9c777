package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	hostFleetReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostfleet_controller_reconcile_total",
			Help: "Number of reconciliations by controller.",
		},
		[]string{"controller"},
	)
	hostFleetReconcileErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostfleet_controller_reconcile_error_total",
			Help: "Number of reconciliation errors by controller.",
		},
		[]string{"controller"},
	)

	hostFleetMalformedConfigTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostfleet_config_malformed_total",
			Help: "Number of reconciles that found a HostFleetConfig missing required fields.",
		},
	)

	hostFleetObserveErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostfleet_observe_error_total",
			Help: "Number of failed application listings by fleet.",
		},
		[]string{"namespace", "fleet"},
	)

	hostFleetAppCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hostfleet_app_count",
			Help: "Number of applications observed in the last reconcile of a fleet.",
		},
		[]string{"namespace", "fleet"},
	)

	hostFleetObserveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostfleet_observe_duration_seconds",
			Help:    "Time taken to list applications in a lattice.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		hostFleetReconcileTotal,
		hostFleetReconcileErrorTotal,
		hostFleetMalformedConfigTotal,
		hostFleetObserveErrorTotal,
		hostFleetAppCount,
		hostFleetObserveDuration,
	)
}
