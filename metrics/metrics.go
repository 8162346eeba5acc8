// Package metrics exposes Prometheus collectors for the alerting core.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfgate",
			Name:      "evaluations_total",
			Help:      "Total number of performance evaluations, partitioned by terminal state.",
		},
		[]string{"state"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "perfgate",
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries, partitioned by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	overheadRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "perfgate",
			Name:      "overhead_ratio",
			Help:      "Rolling average of monitoring overhead relative to execution time.",
		},
	)
)

// Register attaches perfgate collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		evaluationsTotal,
		notificationsTotal,
		overheadRatio,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvaluation counts one finished evaluation by terminal state.
func ObserveEvaluation(state string) {
	evaluationsTotal.WithLabelValues(strings.ToLower(state)).Inc()
}

// ObserveNotification counts one channel delivery outcome.
func ObserveNotification(channel string, success bool) {
	outcome := OutcomeError
	if success {
		outcome = OutcomeSuccess
	}
	notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// SetOverheadRatio publishes the current rolling overhead average.
func SetOverheadRatio(ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	overheadRatio.Set(ratio)
}
