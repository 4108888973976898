package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
)

func newTestLedger(limits map[domain.Category]int) *Ledger {
	return NewLedger(NewMemoryStore(), limits, infra.NewLogger("test"))
}

func TestAdmissionRejectsAtLimit(t *testing.T) {
	// Scenario: used=5, limit=5 must be rejected before any enqueue.
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 5})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Increment(ctx, "user-1", domain.CategoryWorkout); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}
	ok, err := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("HasAvailable returned error: %v", err)
	}
	if ok {
		t.Fatal("admission passed with used == limit")
	}
}

func TestAdmitReturnsQuotaExceeded(t *testing.T) {
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 1})
	ctx := context.Background()

	if err := l.Admit(ctx, "user-1", domain.CategoryWorkout); err != nil {
		t.Fatalf("Admit with capacity returned error: %v", err)
	}
	if err := l.Increment(ctx, "user-1", domain.CategoryWorkout); err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	err := l.Admit(ctx, "user-1", domain.CategoryWorkout)
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("Admit at limit returned %v, want ErrQuotaExceeded", err)
	}
}

func TestUnlimitedSentinelAlwaysAdmits(t *testing.T) {
	l := newTestLedger(map[domain.Category]int{domain.CategoryMeal: domain.UnlimitedQuota})
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := l.Increment(ctx, "user-1", domain.CategoryMeal); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}
	ok, err := l.HasAvailable(ctx, "user-1", domain.CategoryMeal)
	if err != nil {
		t.Fatalf("HasAvailable returned error: %v", err)
	}
	if !ok {
		t.Fatal("unlimited sentinel must always pass admission")
	}
}

func TestDecrementNeverDropsBelowZero(t *testing.T) {
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 5})
	ctx := context.Background()

	// Decrement without a prior increment must be a no-op.
	if err := l.Decrement(ctx, "user-1", domain.CategoryWorkout); err != nil {
		t.Fatalf("Decrement returned error: %v", err)
	}
	stat, err := l.Remaining(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if stat.Used != 0 {
		t.Fatalf("used = %d, want 0", stat.Used)
	}
	if stat.Remaining != 5 {
		t.Fatalf("remaining = %d, want 5", stat.Remaining)
	}
}

func TestLazyPeriodReset(t *testing.T) {
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 3})
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	for i := 0; i < 3; i++ {
		if err := l.Increment(ctx, "user-1", domain.CategoryWorkout); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}
	if ok, _ := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout); ok {
		t.Fatal("admission passed at limit")
	}

	// 29 days later the period has not rolled.
	l.now = func() time.Time { return start.Add(29 * 24 * time.Hour) }
	if ok, _ := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout); ok {
		t.Fatal("period reset fired before 30 days")
	}

	// 30 days later usage resets lazily on the next access.
	l.now = func() time.Time { return start.Add(30 * 24 * time.Hour) }
	ok, err := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("HasAvailable returned error: %v", err)
	}
	if !ok {
		t.Fatal("lazy reset did not clear usage after the period elapsed")
	}
	stat, err := l.Remaining(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if stat.Used != 0 {
		t.Fatalf("used = %d after reset, want 0", stat.Used)
	}
}

func TestAdmissionIncrementRaceIsBounded(t *testing.T) {
	// Two submissions arriving with used=4, limit=5 in the same instant can
	// both pass admission before either increments. This is the documented
	// bounded-overrun property, not a failure: the overrun never exceeds
	// concurrency minus one.
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 5})
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := l.Increment(ctx, "user-1", domain.CategoryWorkout); err != nil {
			t.Fatalf("Increment returned error: %v", err)
		}
	}

	okFirst, _ := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout)
	okSecond, _ := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout)
	if !okFirst || !okSecond {
		t.Fatal("both concurrent admissions should pass at used=4, limit=5")
	}
	_ = l.Increment(ctx, "user-1", domain.CategoryWorkout)
	_ = l.Increment(ctx, "user-1", domain.CategoryWorkout)

	stat, err := l.Remaining(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if stat.Used != 6 {
		t.Fatalf("used = %d, want exactly one admitted overrun", stat.Used)
	}

	// A third submission is rejected: the overrun stays bounded.
	if ok, _ := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout); ok {
		t.Fatal("third submission admitted past the bounded overrun")
	}
}

func TestConcurrentOverrunStaysWithinWorkerBound(t *testing.T) {
	const workers = 4
	l := newTestLedger(map[domain.Category]int{domain.CategoryWorkout: 5})
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for {
				ok, err := l.HasAvailable(ctx, "user-1", domain.CategoryWorkout)
				if err != nil || !ok {
					return
				}
				_ = l.Increment(ctx, "user-1", domain.CategoryWorkout)
			}
		}()
	}
	close(start)
	wg.Wait()

	stat, err := l.Remaining(ctx, "user-1", domain.CategoryWorkout)
	if err != nil {
		t.Fatalf("Remaining returned error: %v", err)
	}
	if stat.Used > 5+(workers-1) {
		t.Fatalf("used = %d, exceeds limit + (workers-1) = %d", stat.Used, 5+(workers-1))
	}
	if stat.Used < 5 {
		t.Fatalf("used = %d, workers stopped before reaching the limit", stat.Used)
	}
}

func TestStatsCoversEveryCategory(t *testing.T) {
	limits := map[domain.Category]int{
		domain.CategoryWorkout:    5,
		domain.CategoryMeal:       5,
		domain.CategoryInbodyScan: 10,
		domain.CategoryBodyPhoto:  domain.UnlimitedQuota,
	}
	l := newTestLedger(limits)
	ctx := context.Background()
	_ = l.Increment(ctx, "user-1", domain.CategoryWorkout)

	stats, err := l.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if len(stats) != len(domain.Categories) {
		t.Fatalf("stats categories = %d, want %d", len(stats), len(domain.Categories))
	}
	if stats[domain.CategoryWorkout].Used != 1 {
		t.Fatalf("workout used = %d, want 1", stats[domain.CategoryWorkout].Used)
	}
	if stats[domain.CategoryBodyPhoto].Limit != domain.UnlimitedQuota {
		t.Fatalf("body-photo limit = %d, want sentinel", stats[domain.CategoryBodyPhoto].Limit)
	}
}
