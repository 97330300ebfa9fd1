package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	Requested prometheus.Counter
	Decisions *prometheus.CounterVec
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Requested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_verification_requests_total",
			Help: "Total number of verification requests filed",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "projecthub_verification_decisions_total",
			Help: "Total number of admin verification decisions by outcome",
		}, []string{"outcome"}),
	}
}
