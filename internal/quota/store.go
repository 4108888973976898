package quota

import (
	"context"
	"time"

	"fitserver/internal/domain"
)

// Store persists quota records. Every method applies the lazy 30-day period
// reset before its own mutation, and each call is internally atomic: a
// read-modify-write as one logical step. Cross-call atomicity is explicitly
// not provided (see the bounded-overrun note on the Ledger).
type Store interface {
	// Get returns the current record, creating it when absent.
	Get(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error)
	// Increment raises usage by one and returns the updated record.
	Increment(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error)
	// Decrement lowers usage by one, flooring at zero, and returns the
	// updated record.
	Decrement(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error)
}
