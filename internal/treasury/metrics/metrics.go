package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fee and treasury ledger.
type Metrics struct {
	FeesPaid        prometheus.Counter
	FeeAmountPaid   prometheus.Counter
	Withdrawals     prometheus.Counter
	WithdrawnAmount prometheus.Counter
}

// New creates a Metrics instance with all treasury metrics registered.
func New() *Metrics {
	return &Metrics{
		FeesPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_fees_paid_total",
			Help: "Total number of verification fee payments collected",
		}),
		FeeAmountPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_fee_amount_paid_total",
			Help: "Total fee amount collected in base units",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_treasury_withdrawals_total",
			Help: "Total number of treasury withdrawals",
		}),
		WithdrawnAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "projecthub_treasury_withdrawn_amount_total",
			Help: "Total amount withdrawn from the treasury in base units",
		}),
	}
}
