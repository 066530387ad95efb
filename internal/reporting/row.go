package reporting

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// EarningsFactRow mirrors the earnings_facts BigQuery schema. One row per
// ledger entry, keyed by the outbox event id so replays dedupe downstream.
type EarningsFactRow struct {
	EventID     string             `bigquery:"event_id"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	EntryID     string             `bigquery:"entry_id"`
	CreatorID   string             `bigquery:"creator_id"`
	Source      string             `bigquery:"source"`
	AmountCents int64              `bigquery:"amount_cents"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}

func encodeJSON(raw []byte) (cbigquery.NullJSON, error) {
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
