package quota

import (
	"context"
	"fmt"
	"time"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
)

// Ledger gates admission and reconciles per-user, per-category usage against
// a rolling 30-day period.
//
// The admission-check-then-increment sequence is intentionally not atomic
// with enqueue: two nearly simultaneous submissions can both pass admission
// before either increments. The overrun is bounded by the per-category worker
// concurrency minus one and is an accepted cost/complexity tradeoff.
type Ledger struct {
	store  Store
	limits map[domain.Category]int
	logger infra.Logger

	// now is injectable for period-reset tests.
	now func() time.Time
}

// NewLedger constructs a ledger with per-category limits. A limit of
// domain.UnlimitedQuota means unconstrained usage for that category.
func NewLedger(store Store, limits map[domain.Category]int, logger infra.Logger) *Ledger {
	return &Ledger{
		store:  store,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Ledger) limitFor(category domain.Category) int {
	if limit, ok := l.limits[category]; ok {
		return limit
	}
	return 0
}

// HasAvailable reports whether the user may submit another generation in the
// category. Must be called strictly before enqueue.
func (l *Ledger) HasAvailable(ctx context.Context, userID string, category domain.Category) (bool, error) {
	limit := l.limitFor(category)
	if limit == domain.UnlimitedQuota {
		return true, nil
	}
	rec, err := l.store.Get(ctx, userID, category, limit, l.now())
	if err != nil {
		return false, fmt.Errorf("quota admission: %w", err)
	}
	return rec.Used < rec.Limit, nil
}

// Admit is the admission gate for new submissions: it returns
// domain.ErrQuotaExceeded when the user has no capacity left in the
// category. Must be called strictly before enqueue.
func (l *Ledger) Admit(ctx context.Context, userID string, category domain.Category) error {
	ok, err := l.HasAvailable(ctx, userID, category)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s for user %s", domain.ErrQuotaExceeded, category, userID)
	}
	return nil
}

// Increment charges one usage unit. Called optimistically when a generation
// attempt is dispatched.
func (l *Ledger) Increment(ctx context.Context, userID string, category domain.Category) error {
	rec, err := l.store.Increment(ctx, userID, category, l.limitFor(category), l.now())
	if err != nil {
		return fmt.Errorf("quota increment: %w", err)
	}
	l.logger.Debug().
		Str("user_id", userID).
		Str("category", string(category)).
		Int("used", rec.Used).
		Msg("quota: incremented")
	return nil
}

// Decrement undoes an optimistic increment after a failed generation. Usage
// never drops below zero, so a decrement without a matching increment is a
// no-op rather than an error.
func (l *Ledger) Decrement(ctx context.Context, userID string, category domain.Category) error {
	rec, err := l.store.Decrement(ctx, userID, category, l.limitFor(category), l.now())
	if err != nil {
		return fmt.Errorf("quota decrement: %w", err)
	}
	l.logger.Debug().
		Str("user_id", userID).
		Str("category", string(category)).
		Int("used", rec.Used).
		Msg("quota: decremented")
	return nil
}

// Remaining returns the current usage view for one category.
func (l *Ledger) Remaining(ctx context.Context, userID string, category domain.Category) (domain.QuotaStat, error) {
	limit := l.limitFor(category)
	rec, err := l.store.Get(ctx, userID, category, limit, l.now())
	if err != nil {
		return domain.QuotaStat{}, fmt.Errorf("quota remaining: %w", err)
	}
	return domain.QuotaStat{Used: rec.Used, Limit: rec.Limit, Remaining: rec.Remaining()}, nil
}

// Stats returns the usage view across every category.
func (l *Ledger) Stats(ctx context.Context, userID string) (map[domain.Category]domain.QuotaStat, error) {
	stats := make(map[domain.Category]domain.QuotaStat, len(domain.Categories))
	for _, category := range domain.Categories {
		stat, err := l.Remaining(ctx, userID, category)
		if err != nil {
			return nil, err
		}
		stats[category] = stat
	}
	return stats, nil
}
