package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics counts reconciliation pipeline outcomes per gateway.
type ReconcileMetrics struct {
	applied            *prometheus.CounterVec
	duplicates         *prometheus.CounterVec
	rejectedSignatures *prometheus.CounterVec
	unclassified       prometheus.Counter
	orderNotFound      *prometheus.CounterVec
}

var (
	reconcileMetricsOnce sync.Once
	reconcileMetrics     *ReconcileMetrics
)

// Reconcile returns the process-wide reconciliation metrics.
func Reconcile() *ReconcileMetrics {
	reconcileMetricsOnce.Do(func() {
		reconcileMetrics = newReconcileMetrics(prometheus.DefaultRegisterer)
	})
	return reconcileMetrics
}

func newReconcileMetrics(registerer prometheus.Registerer) *ReconcileMetrics {
	m := &ReconcileMetrics{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payrec_reconciliation_applied_total",
			Help: "Resolved outcomes applied to an order, by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payrec_reconciliation_duplicate_total",
			Help: "Notifications that were idempotent no-ops, by gateway.",
		}, []string{"gateway"}),
		rejectedSignatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payrec_reconciliation_signature_rejected_total",
			Help: "Notifications rejected by signature verification, by gateway.",
		}, []string{"gateway"}),
		unclassified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payrec_reconciliation_unclassified_total",
			Help: "Notifications matching no known gateway.",
		}),
		orderNotFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payrec_reconciliation_order_not_found_total",
			Help: "Verified notifications whose order identity resolved to nothing.",
		}, []string{"gateway"}),
	}

	if registerer != nil {
		registerer.MustRegister(m.applied, m.duplicates, m.rejectedSignatures, m.unclassified, m.orderNotFound)
	}
	return m
}

func (m *ReconcileMetrics) ObserveApplied(gateway, outcome string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(gateway, outcome).Inc()
}

func (m *ReconcileMetrics) ObserveDuplicate(gateway string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(gateway).Inc()
}

func (m *ReconcileMetrics) ObserveSignatureRejected(gateway string) {
	if m == nil {
		return
	}
	m.rejectedSignatures.WithLabelValues(gateway).Inc()
}

func (m *ReconcileMetrics) ObserveUnclassified() {
	if m == nil {
		return
	}
	m.unclassified.Inc()
}

func (m *ReconcileMetrics) ObserveOrderNotFound(gateway string) {
	if m == nil {
		return
	}
	m.orderNotFound.WithLabelValues(gateway).Inc()
}
