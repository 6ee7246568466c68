package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Allowed *prometheus.CounterVec
	Denied  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Allowed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpcore",
			Subsystem: "ratelimit",
			Name:      "allowed_total",
			Help:      "Requests that fit under the rate limit.",
		}, []string{"action"}),
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpcore",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Requests rejected by the rate limit.",
		}, []string{"action"}),
	}
}

func (m *Metrics) RecordAllowed(action string) {
	if m == nil {
		return
	}
	m.Allowed.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordDenied(action string) {
	if m == nil {
		return
	}
	m.Denied.WithLabelValues(action).Inc()
}
