package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tenant resolution, the hot path every
// authenticated request crosses.
type Metrics struct {
	Resolutions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	OrgsCreated prometheus.Counter
}

// New registers all tenant metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "erpcore_tenant_resolutions_total",
			Help: "Successful tenant context resolutions by scope",
		}, []string{"scope"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "erpcore_tenant_rejections_total",
			Help: "Rejected tenant resolutions by reason",
		}, []string{"reason"}),
		OrgsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpcore_organizations_created_total",
			Help: "Total number of organizations provisioned",
		}),
	}
}

// ObserveResolution records one successful resolution.
func (m *Metrics) ObserveResolution(platform bool) {
	if m == nil {
		return
	}
	scope := "organization"
	if platform {
		scope = "platform"
	}
	m.Resolutions.WithLabelValues(scope).Inc()
}

// ObserveRejection records one failed resolution keyed by error code.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// IncrementOrgsCreated records a successful provisioning.
func (m *Metrics) IncrementOrgsCreated() {
	if m == nil {
		return
	}
	m.OrgsCreated.Inc()
}
