package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the project directory.
type Metrics struct {
	ProjectsRegistered prometheus.Counter
	ProjectsUpdated    prometheus.Counter
}

// New creates a Metrics instance with all directory metrics registered.
func New() *Metrics {
	return &Metrics{
		ProjectsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_projects_registered_total",
			Help: "Total number of projects registered",
		}),
		ProjectsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_projects_updated_total",
			Help: "Total number of project updates applied",
		}),
	}
}
