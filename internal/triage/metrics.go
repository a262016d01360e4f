package triage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/pulse/internal/audit"
	"github.com/linnemanlabs/pulse/internal/risk"
)

// Metrics holds Prometheus metrics for the risk and triage subsystems.
type Metrics struct {
	PredictionsTotal  *prometheus.CounterVec
	LLMFallbacksTotal *prometheus.CounterVec
	AuditsTotal       *prometheus.CounterVec
	RanksTotal        prometheus.Counter
	RankDuration      prometheus.Histogram
	RankedPatients    prometheus.Histogram
}

// NewMetrics registers and returns risk/triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_predictions_total",
			Help: "Total risk predictions by level and scoring strategy.",
		}, []string{"level", "strategy"}),
		LLMFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_llm_fallbacks_total",
			Help: "Total LLM scoring failures that fell back to rules, by reason.",
		}, []string{"reason"}),
		AuditsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_audits_total",
			Help: "Total vitals audits by verdict and source.",
		}, []string{"status", "source"}),
		RanksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_triage_ranks_total",
			Help: "Total triage ranking passes.",
		}),
		RankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_triage_rank_duration_seconds",
			Help:    "Duration of triage ranking passes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~20s
		}),
		RankedPatients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_triage_rank_patients",
			Help:    "Patients assessed per triage ranking pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		}),
	}

	reg.MustRegister(
		m.PredictionsTotal,
		m.LLMFallbacksTotal,
		m.AuditsTotal,
		m.RanksTotal,
		m.RankDuration,
		m.RankedPatients,
	)

	return m
}

// ObservePrediction counts one persisted prediction.
func (m *Metrics) ObservePrediction(level, strategy string) {
	m.PredictionsTotal.WithLabelValues(level, strategy).Inc()
}

// RiskHooks returns risk.Hooks that increment the corresponding metrics.
func (m *Metrics) RiskHooks() risk.Hooks {
	return risk.Hooks{
		OnFallback: func(reason string) {
			m.LLMFallbacksTotal.WithLabelValues(reason).Inc()
		},
	}
}

// AuditHooks returns audit.Hooks that increment the corresponding metrics.
func (m *Metrics) AuditHooks() audit.Hooks {
	return audit.Hooks{
		OnAudit: func(status audit.Status, source string) {
			m.AuditsTotal.WithLabelValues(string(status), source).Inc()
		},
	}
}

// RankHooks returns Hooks that increment the corresponding metrics.
func (m *Metrics) RankHooks() Hooks {
	return Hooks{
		OnRank: func(patients int, d time.Duration) {
			m.RanksTotal.Inc()
			m.RankDuration.Observe(d.Seconds())
			m.RankedPatients.Observe(float64(patients))
		},
	}
}
