package montecarlo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abemo/causalquestioning"
)

// Metrics exports the progress of a Runner to Prometheus. All metrics are
// labelled with the parameter setting, e.g. "EG(epsilon=0.1)".
type Metrics struct {
	repetitions *prometheus.CounterVec
	trials      *prometheus.CounterVec
	regret      *prometheus.HistogramVec
	optimal     *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the runner metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		repetitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "causalsim",
			Name:      "repetitions_total",
			Help:      "Total repetitions completed",
		}, []string{"params"}),
		trials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "causalsim",
			Name:      "trials_total",
			Help:      "Total trials completed",
		}, []string{"params"}),
		regret: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "causalsim",
			Name:      "cumulative_regret",
			Help:      "Cumulative regret at the end of each repetition",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"params"}),
		optimal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "causalsim",
			Name:      "last_optimal_action",
			Help:      "Whether the last trial of the most recent repetition chose an optimal action",
		}, []string{"params"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "causalsim",
			Name:      "repetition_duration_seconds",
			Help:      "Wall time of one repetition",
			Buckets:   prometheus.DefBuckets,
		}, []string{"params"}),
	}
}

func (m *Metrics) observe(label string, s bandit.Series, elapsed time.Duration) {
	m.repetitions.WithLabelValues(label).Inc()
	m.trials.WithLabelValues(label).Add(float64(s.Len()))
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if n := s.Len(); n > 0 {
		m.regret.WithLabelValues(label).Observe(s.CPR[n-1])
		m.optimal.WithLabelValues(label).Set(s.POA[n-1])
	}
}
