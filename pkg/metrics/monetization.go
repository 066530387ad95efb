package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MonetizationMetrics records ledger and payout activity.
type MonetizationMetrics struct {
	ledgerEntries     *prometheus.CounterVec
	payoutTransitions *prometheus.CounterVec
	outboxPublished   prometheus.Counter
	outboxFailed      prometheus.Counter
}

// NewMonetizationMetrics registers the monetization metrics on the provided registerer.
func NewMonetizationMetrics(reg prometheus.Registerer) *MonetizationMetrics {
	if reg == nil {
		return &MonetizationMetrics{}
	}
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_total",
		Help: "Ledger entries recorded, labeled by source.",
	}, []string{"source"})
	payoutTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_transitions_total",
		Help: "Payout request state transitions.",
	}, []string{"status"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published to Pub/Sub.",
	})
	outboxFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish attempts that failed.",
	})
	reg.MustRegister(ledgerEntries, payoutTransitions, outboxPublished, outboxFailed)
	return &MonetizationMetrics{
		ledgerEntries:     ledgerEntries,
		payoutTransitions: payoutTransitions,
		outboxPublished:   outboxPublished,
		outboxFailed:      outboxFailed,
	}
}

// IncLedgerEntry counts one recorded ledger entry for the given source.
func (m *MonetizationMetrics) IncLedgerEntry(source string) {
	if m == nil || m.ledgerEntries == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncPayoutTransition counts one payout state transition.
func (m *MonetizationMetrics) IncPayoutTransition(status string) {
	if m == nil || m.payoutTransitions == nil {
		return
	}
	m.payoutTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncOutboxPublished counts one published outbox event.
func (m *MonetizationMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailed counts one failed outbox publish attempt.
func (m *MonetizationMetrics) IncOutboxFailed() {
	if m == nil || m.outboxFailed == nil {
		return
	}
	m.outboxFailed.Inc()
}
