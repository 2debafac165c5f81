package outbox

import (
	"context"

	domain "billionsgym/internal/domain/outbox"
)

// Store persists outbox entries.
type Store interface {
	// Save persists an entry (insert or update).
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still to be delivered (pending or retrying).
	// PRE: limit > 0
	// POST: Returns up to limit entries, oldest first
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
}
