package quota

import (
	"context"
	"fmt"
	"time"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/sqlinline"
)

// PGStore persists quota records in PostgreSQL. Every operation is a single
// upsert statement so reset-then-mutate is atomic inside the database.
type PGStore struct {
	runner infra.SQLExecutor
}

func NewPGStore(runner infra.SQLExecutor) *PGStore {
	return &PGStore{runner: runner}
}

func (s *PGStore) Get(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	return s.run(ctx, sqlinline.QQuotaGet, userID, category, limit, now)
}

func (s *PGStore) Increment(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	return s.run(ctx, sqlinline.QQuotaIncrement, userID, category, limit, now)
}

func (s *PGStore) Decrement(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	return s.run(ctx, sqlinline.QQuotaDecrement, userID, category, limit, now)
}

func (s *PGStore) run(ctx context.Context, query string, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	rec := domain.QuotaRecord{UserID: userID, Category: category}
	row := s.runner.QueryRow(ctx, query, userID, string(category), now, limit)
	if err := row.Scan(&rec.PeriodStart, &rec.Used, &rec.Limit); err != nil {
		return rec, fmt.Errorf("quota: %s %s: %w", category, userID, err)
	}
	return rec, nil
}

var _ Store = (*PGStore)(nil)
