package metrics

import "github.com/prometheus/client_golang/prometheus"

// RotationMetrics exposes rotation state gauges for operators: candidate
// count and the size of the unassigned lead pool.
type RotationMetrics struct {
	candidates prometheus.Gauge
	pool       prometheus.Gauge
	handoffs   prometheus.Counter
}

// NewRotationMetrics registers the rotation gauges on the provided registerer.
func NewRotationMetrics(reg prometheus.Registerer) *RotationMetrics {
	if reg == nil {
		return &RotationMetrics{}
	}
	candidates := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rotation_eligible_agents",
		Help: "Agents currently eligible to receive a lead.",
	})
	pool := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rotation_unassigned_leads",
		Help: "Leads waiting in the unassigned pool.",
	})
	handoffs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rotation_forced_handoffs_total",
		Help: "Leads returned to the pool after the attendance window expired.",
	})
	reg.MustRegister(candidates, pool, handoffs)
	return &RotationMetrics{
		candidates: candidates,
		pool:       pool,
		handoffs:   handoffs,
	}
}

// SetCandidates records the current eligible agent count.
func (m *RotationMetrics) SetCandidates(n int) {
	if m == nil || m.candidates == nil {
		return
	}
	m.candidates.Set(float64(n))
}

// SetUnassignedPool records the current unassigned pool size.
func (m *RotationMetrics) SetUnassignedPool(n int) {
	if m == nil || m.pool == nil {
		return
	}
	m.pool.Set(float64(n))
}

// IncForcedHandoff counts one expired-hold return.
func (m *RotationMetrics) IncForcedHandoff() {
	if m == nil || m.handoffs == nil {
		return
	}
	m.handoffs.Inc()
}
