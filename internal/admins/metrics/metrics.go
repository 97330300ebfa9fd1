package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admin registry.
type Metrics struct {
	AdminsAdded   prometheus.Counter
	AdminsRemoved prometheus.Counter
}

// New creates a Metrics instance with all admin registry metrics registered.
func New() *Metrics {
	return &Metrics{
		AdminsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_admins_added_total",
			Help: "Total number of admins added to the registry",
		}),
		AdminsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_admins_removed_total",
			Help: "Total number of admins removed from the registry",
		}),
	}
}
