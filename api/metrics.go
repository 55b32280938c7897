package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API. Each Metrics owns its
// registry so several handlers can coexist in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	Computations    *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	PayrollRuns     *prometheus.CounterVec
	RuleSetsLoaded  prometheus.Gauge
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statpay_holiday_pay_computations_total",
				Help: "Holiday pay computations by province and outcome",
			},
			[]string{"province", "outcome"},
		),

		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statpay_holiday_pay_compute_seconds",
				Help:    "Duration of one holiday pay computation",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"province"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statpay_result_cache_lookups_total",
				Help: "Result cache lookups by outcome (hit, miss, error)",
			},
			[]string{"outcome"},
		),

		PayrollRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statpay_payroll_runs_total",
				Help: "Holiday pay payroll runs by trigger (api, scheduler)",
			},
			[]string{"trigger"},
		),

		RuleSetsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "statpay_rule_sets_loaded",
				Help: "Rule sets in the current table snapshot",
			},
		),
	}

	m.registry.MustRegister(
		m.Computations,
		m.ComputeDuration,
		m.CacheLookups,
		m.PayrollRuns,
		m.RuleSetsLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveComputation records one computation. outcome is "eligible",
// "ineligible" or an error class.
func (m *Metrics) ObserveComputation(province, outcome string, took time.Duration) {
	m.Computations.WithLabelValues(province, outcome).Inc()
	m.ComputeDuration.WithLabelValues(province).Observe(took.Seconds())
}
