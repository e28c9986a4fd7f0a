// Package metrics exposes Prometheus instrumentation for the producer
// election and voting state machine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ElectionMetrics tracks vote aggregation, unstake lifecycle, and
// tabulation activity.
type ElectionMetrics struct {
	actionsHandled  *prometheus.CounterVec
	actionErrors    *prometheus.CounterVec
	producersActive prometheus.Gauge
	totalStaked     prometheus.Gauge
	unstakeOpen     prometheus.Gauge
	refundsPaid     *prometheus.CounterVec
	tabulations     prometheus.Counter
}

var (
	electionOnce     sync.Once
	electionRegistry *ElectionMetrics
)

// Election returns the process-wide ElectionMetrics, constructing and
// registering it with the default Prometheus registry on first use.
func Election() *ElectionMetrics {
	electionOnce.Do(func() {
		electionRegistry = &ElectionMetrics{
			actionsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "dposchain_actions_handled_total",
				Help: "Count of successfully handled actions by kind.",
			}, []string{"action"}),
			actionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "dposchain_action_errors_total",
				Help: "Count of action failures by kind and error sentinel.",
			}, []string{"action", "error"}),
			producersActive: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "dposchain_producers_active",
				Help: "Number of producers elected in the most recent tabulation.",
			}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "dposchain_total_staked",
				Help: "Approximate total tokens currently staked for voting.",
			}),
			unstakeOpen: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "dposchain_unstake_requests_open",
				Help: "Number of outstanding unstake requests across all accounts.",
			}),
			refundsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "dposchain_unstake_refunds_paid_total",
				Help: "Count of weekly unstake refund payments processed.",
			}, []string{"status"}),
			tabulations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dposchain_tabulations_total",
				Help: "Count of election tabulator runs.",
			}),
		}
		prometheus.MustRegister(
			electionRegistry.actionsHandled,
			electionRegistry.actionErrors,
			electionRegistry.producersActive,
			electionRegistry.totalStaked,
			electionRegistry.unstakeOpen,
			electionRegistry.refundsPaid,
			electionRegistry.tabulations,
		)
	})
	return electionRegistry
}

// ObserveAction records a successful action handling by kind.
func (m *ElectionMetrics) ObserveAction(kind string) {
	if m == nil {
		return
	}
	m.actionsHandled.WithLabelValues(kind).Inc()
}

// ObserveActionError records an action failure by kind and sentinel name.
func (m *ElectionMetrics) ObserveActionError(kind, sentinel string) {
	if m == nil {
		return
	}
	if sentinel == "" {
		sentinel = "unknown"
	}
	m.actionErrors.WithLabelValues(kind, sentinel).Inc()
}

// SetProducersActive records the size of the most recent elected set.
func (m *ElectionMetrics) SetProducersActive(n int) {
	if m == nil {
		return
	}
	m.producersActive.Set(float64(n))
}

// SetTotalStaked records the current approximate total staked balance.
func (m *ElectionMetrics) SetTotalStaked(amount uint64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(float64(amount))
}

// SetUnstakeOpen records the current count of outstanding unstake requests.
func (m *ElectionMetrics) SetUnstakeOpen(n int) {
	if m == nil {
		return
	}
	m.unstakeOpen.Set(float64(n))
}

// ObserveRefundPaid records one weekly refund payment outcome.
func (m *ElectionMetrics) ObserveRefundPaid(status string) {
	if m == nil {
		return
	}
	m.refundsPaid.WithLabelValues(status).Inc()
}

// ObserveTabulation records one tabulator run.
func (m *ElectionMetrics) ObserveTabulation() {
	if m == nil {
		return
	}
	m.tabulations.Inc()
}
