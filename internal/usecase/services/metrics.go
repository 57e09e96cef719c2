package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the core's Prometheus instruments. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry collisions.
type Metrics struct {
	transfersTotal     *prometheus.CounterVec
	sweeperRunsTotal   *prometheus.CounterVec
	sweeperItemsTotal  *prometheus.CounterVec
	sweeperLastRunUnix *prometheus.GaugeVec
	webhooksTotal      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		transfersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_core",
				Subsystem: "transfers",
				Name:      "total",
				Help:      "Transfer requests partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		sweeperRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_core",
				Subsystem: "sweeper",
				Name:      "runs_total",
				Help:      "Sweeper iterations partitioned by sweeper and result.",
			},
			[]string{"sweeper", "result"},
		),
		sweeperItemsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_core",
				Subsystem: "sweeper",
				Name:      "items_total",
				Help:      "Transactions handled by sweepers partitioned by sweeper and outcome.",
			},
			[]string{"sweeper", "outcome"},
		),
		sweeperLastRunUnix: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wallet_core",
				Subsystem: "sweeper",
				Name:      "last_run_unix",
				Help:      "Unix time of the most recent run per sweeper.",
			},
			[]string{"sweeper"},
		),
		webhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet_core",
				Subsystem: "webhooks",
				Name:      "total",
				Help:      "Inbound gateway webhooks partitioned by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveTransfer(outcome string) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSweeperRun(sweeper, result string, atUnix float64) {
	if m == nil {
		return
	}
	m.sweeperRunsTotal.WithLabelValues(sweeper, result).Inc()
	m.sweeperLastRunUnix.WithLabelValues(sweeper).Set(atUnix)
}

func (m *Metrics) ObserveSweeperItem(sweeper, outcome string) {
	if m == nil {
		return
	}
	m.sweeperItemsTotal.WithLabelValues(sweeper, outcome).Inc()
}

func (m *Metrics) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(outcome).Inc()
}
