// Package metrics exposes the core's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

type Metrics struct {
	Confirmations *prometheus.CounterVec
	Payouts       prometheus.Counter
	Recomputes    *prometheus.CounterVec
}

// New registers the core counters on the given registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendora_payment_confirmations_total",
			Help: "Payment confirmations by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		Payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vendora_withdrawal_payouts_total",
			Help: "Withdrawal requests settled as paid.",
		}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vendora_trust_recomputes_total",
			Help: "Trust recompute runs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Confirmations, m.Payouts, m.Recomputes)
	return m
}

// NewRegistry builds the process registry with the standard collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

var Module = fx.Module("metrics",
	fx.Provide(NewRegistry),
	fx.Provide(New),
)
