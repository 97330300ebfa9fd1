package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review ledger.
type Metrics struct {
	ReviewsSubmitted prometheus.Counter
	ReviewsUpdated   prometheus.Counter
}

// New creates a Metrics instance with all review metrics registered.
func New() *Metrics {
	return &Metrics{
		ReviewsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_reviews_submitted_total",
			Help: "Total number of reviews submitted",
		}),
		ReviewsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_reviews_updated_total",
			Help: "Total number of review updates",
		}),
	}
}
