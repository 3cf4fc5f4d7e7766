package slashing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	offencesReportedImmediately = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_offences_reported_immediately_total",
		Help: "Number of dispute offences reported when the dispute concluded.",
	}, []string{"kind"})
	disputesDeferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_slashes_deferred_total",
		Help: "Number of disputes whose losers were recorded as pending slashes.",
	}, []string{"kind"})
	proofsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_slashes_resolved_total",
		Help: "Number of pending slashes resolved with a key ownership proof.",
	}, []string{"kind"})
	pendingPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_pending_slashes_pruned_total",
		Help: "Number of pending slash entries dropped at a session boundary.",
	}, []string{"kind"})
	admissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispute_slashing_reports_rejected_total",
		Help: "Number of slashing reports refused by the admission checks.",
	}, []string{"reason"})
)
