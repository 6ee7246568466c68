// Package metrics exposes authentication counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Logins       *prometheus.CounterVec
	LoginsFailed *prometheus.CounterVec
	UsersCreated prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpcore",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Successful logins.",
		}, []string{"tier"}),
		LoginsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpcore",
			Subsystem: "auth",
			Name:      "logins_failed_total",
			Help:      "Rejected login attempts.",
		}, []string{"tier", "reason"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "erpcore",
			Subsystem: "auth",
			Name:      "users_created_total",
			Help:      "User accounts created.",
		}),
	}
}

func (m *Metrics) RecordLogin(tier string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordLoginFailed(tier, reason string) {
	if m == nil {
		return
	}
	m.LoginsFailed.WithLabelValues(tier, reason).Inc()
}

func (m *Metrics) RecordUserCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}
