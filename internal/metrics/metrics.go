// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auto-save outcomes.
const (
	OutcomeApplied           = "applied"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeExpired           = "expired"
	OutcomeError             = "error"
)

// Metrics groups the server's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec

	expensesCreated       prometheus.Counter
	paymentRequestsIssued prometheus.Counter
	depositsConfirmed     prometheus.Counter
	autosaveRuns          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripfund",
			Name:      "rpc_requests_total",
			Help:      "RPCs handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tripfund",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		expensesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripfund",
			Name:      "expenses_created_total",
			Help:      "Expenses recorded on trips.",
		}),
		paymentRequestsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripfund",
			Name:      "payment_requests_issued_total",
			Help:      "Payment requests created by expense splits.",
		}),
		depositsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tripfund",
			Name:      "wallet_deposits_confirmed_total",
			Help:      "Card deposits confirmed by the payment processor.",
		}),
		autosaveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripfund",
			Name:      "autosave_contributions_total",
			Help:      "Auto-save rule executions, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.expensesCreated,
		m.paymentRequestsIssued,
		m.depositsConfirmed,
		m.autosaveRuns,
	)
	return m
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ExpenseCreated records an expense and the payment requests it produced.
func (m *Metrics) ExpenseCreated(requests int) {
	if m == nil {
		return
	}
	m.expensesCreated.Inc()
	m.paymentRequestsIssued.Add(float64(requests))
}

// DepositConfirmed records a confirmed card deposit.
func (m *Metrics) DepositConfirmed() {
	if m == nil {
		return
	}
	m.depositsConfirmed.Inc()
}

// Autosave records the outcome of one auto-save rule execution.
func (m *Metrics) Autosave(outcome string) {
	if m == nil {
		return
	}
	m.autosaveRuns.WithLabelValues(outcome).Inc()
}
