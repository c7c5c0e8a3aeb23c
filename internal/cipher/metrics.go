package cipher

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK      = "ok"
	resultError   = "error"
	resultUnknown = "unknown"

	// unknownOperation labels lookups of unregistered names, which come from
	// callers and must not mint new series.
	unknownOperation = "unknown"
)

// Metrics records operation outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Operations *prometheus.CounterVec
	Bytes      *prometheus.HistogramVec
}

// NewMetrics creates the operation collectors and registers them with reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hexkit_operations_total",
			Help: "Operations executed, by operation name and result.",
		}, []string{"operation", "result"}),
		Bytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hexkit_operation_bytes",
			Help:    "Input size of executed operations.",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Bytes)
	}
	return m
}

// DefaultMetrics is registered with the prometheus default registerer and
// backs the Default registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

func (m *Metrics) observe(op string, n int, err error) {
	if m == nil {
		return
	}
	result := resultOK
	switch {
	case errors.Is(err, ErrUnknownOperation):
		op, result = unknownOperation, resultUnknown
	case err != nil:
		result = resultError
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.Bytes.WithLabelValues(op).Observe(float64(n))
}
