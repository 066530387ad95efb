package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMonetizationMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMonetizationMetrics(reg)
	metrics.IncLedgerEntry("view_earning")
	metrics.IncLedgerEntry("view_earning")
	metrics.IncPayoutTransition("approved")
	metrics.IncOutboxPublished()
	metrics.IncOutboxFailed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ledger_entries_total", "source", "view_earning"); err != nil {
		t.Fatalf("fetch ledger entries: %v", err)
	} else if got != 2 {
		t.Fatalf("expected ledger entries=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payout_transitions_total", "status", "approved"); err != nil {
		t.Fatalf("fetch payout transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payout transitions=1, got %f", got)
	}

	published := findMetricFamily(mfs, "outbox_events_published_total")
	if published == nil || len(published.GetMetric()) != 1 {
		t.Fatalf("expected published counter family")
	}
	if got := published.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected published=1, got %f", got)
	}

	failed := findMetricFamily(mfs, "outbox_events_failed_total")
	if failed == nil || len(failed.GetMetric()) != 1 {
		t.Fatalf("expected failed counter family")
	}
	if got := failed.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}
}

func TestMonetizationMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *MonetizationMetrics
	metrics.IncLedgerEntry("view_earning")
	metrics.IncPayoutTransition("approved")
	metrics.IncOutboxPublished()
	metrics.IncOutboxFailed()
}
