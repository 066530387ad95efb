package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
)

// SelectForSettlement picks the oldest unpaid entries whose amounts sum to
// exactly targetCents. The entries must already be ordered oldest first, as
// ListUnpaid returns them. Deduction entries are negative, so the running
// sum may briefly exceed the target before a deduction pulls it back.
//
// Payout snapshots are taken over the same FIFO prefix, so failing to reach
// an exact match means the ledger changed between snapshot and settlement
// and the caller must abort rather than guess.
func SelectForSettlement(entries []models.LedgerEntry, targetCents int64) ([]uuid.UUID, error) {
	if targetCents <= 0 {
		return nil, fmt.Errorf("settlement target must be positive, got %d", targetCents)
	}
	var (
		running int64
		ids     []uuid.UUID
	)
	for _, entry := range entries {
		running += entry.AmountCents
		ids = append(ids, entry.ID)
		if running == targetCents {
			return ids, nil
		}
	}
	return nil, fmt.Errorf("unpaid entries sum to %d, no prefix matches settlement target %d", running, targetCents)
}
