package quota

import (
	"context"
	"sync"
	"time"

	"fitserver/internal/domain"
)

type recordKey struct {
	userID   string
	category domain.Category
}

// MemoryStore keeps quota records in process memory. Intended for tests and
// single-node development environments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[recordKey]domain.QuotaRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]domain.QuotaRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.load(userID, category, limit, now)
	s.records[recordKey{userID, category}] = rec
	return rec, nil
}

func (s *MemoryStore) Increment(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.load(userID, category, limit, now)
	rec.Used++
	s.records[recordKey{userID, category}] = rec
	return rec, nil
}

func (s *MemoryStore) Decrement(ctx context.Context, userID string, category domain.Category, limit int, now time.Time) (domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.load(userID, category, limit, now)
	if rec.Used > 0 {
		rec.Used--
	}
	s.records[recordKey{userID, category}] = rec
	return rec, nil
}

// load fetches or creates the record and applies the lazy period reset.
// Callers must hold the mutex.
func (s *MemoryStore) load(userID string, category domain.Category, limit int, now time.Time) domain.QuotaRecord {
	rec, ok := s.records[recordKey{userID, category}]
	if !ok {
		return domain.QuotaRecord{
			UserID:      userID,
			Category:    category,
			PeriodStart: now,
			Limit:       limit,
		}
	}
	rec.Limit = limit
	if rec.Expired(now) {
		rec.Used = 0
		rec.PeriodStart = now
	}
	return rec
}

var _ Store = (*MemoryStore)(nil)
