package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tellonym/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestTypeCounters_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := TypeCounters(context.Background(), db, "d1"); err == nil {
		t.Fatalf("expected error due to missing type_counters table")
	}
}

func TestTypeCounters_IncrementAndZeroFill(t *testing.T) {
	db := newTestDB(t, &domain.TypeCounter{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := IncrementTypeCounter(ctx, db, "d1", domain.TypeCompliment); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := IncrementTypeCounter(ctx, db, "d2", domain.TypeCompliment); err != nil {
		t.Fatalf("increment other deployment: %v", err)
	}

	got, err := TypeCounters(ctx, db, "d1")
	if err != nil {
		t.Fatalf("TypeCounters: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected all four types, got %v", got)
	}
	if got[domain.TypeCompliment] != 3 || got[domain.TypeQuestion] != 0 {
		t.Fatalf("unexpected counters: %v", got)
	}
}

func TestResetTypeCounters_ReturnsPrevious(t *testing.T) {
	db := newTestDB(t, &domain.TypeCounter{})
	ctx := context.Background()

	_ = IncrementTypeCounter(ctx, db, "d1", domain.TypeAdvice)
	_ = IncrementTypeCounter(ctx, db, "d1", domain.TypeAdvice)

	prev, err := ResetTypeCounters(ctx, db, "d1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if prev[domain.TypeAdvice] != 2 {
		t.Fatalf("previous advice = %d; want 2", prev[domain.TypeAdvice])
	}
	now, _ := TypeCounters(ctx, db, "d1")
	for typ, n := range now {
		if n != 0 {
			t.Fatalf("%s not reset: %d", typ, n)
		}
	}
}

func TestRateStats_TrackedAndAtLimit(t *testing.T) {
	db := newTestDB(t, &domain.RateWindow{})
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := domain.RatePolicy{Limit: 2, WindowMinutes: 1}

	// u1: at limit inside the window.
	_ = IncrementRateWindow(ctx, db, "d1", "u1", now.Add(-10*time.Second))
	_ = IncrementRateWindow(ctx, db, "d1", "u1", now)
	// u2: at limit but the window has elapsed.
	_ = IncrementRateWindow(ctx, db, "d1", "u2", now.Add(-5*time.Minute))
	_ = IncrementRateWindow(ctx, db, "d1", "u2", now)
	// u3: below limit.
	_ = IncrementRateWindow(ctx, db, "d1", "u3", now)

	tracked, atLimit, err := RateStats(ctx, db, "d1", p, now)
	if err != nil {
		t.Fatalf("RateStats: %v", err)
	}
	if tracked != 3 || atLimit != 1 {
		t.Fatalf("tracked=%d atLimit=%d; want 3,1", tracked, atLimit)
	}

	_, atLimit, _ = RateStats(ctx, db, "d1", domain.RatePolicy{Limit: 0, WindowMinutes: 1}, now)
	if atLimit != 0 {
		t.Fatalf("disabled policy must report zero at limit, got %d", atLimit)
	}
}
