package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-tellonym/internal/domain"
)

func TestRateWindow_IncrementCreatesThenKeepsStart(t *testing.T) {
	db := newTestDB(t, &domain.RateWindow{})
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, ok, err := GetRateWindow(ctx, db, "d1", "u1"); err != nil || ok {
		t.Fatalf("expected no window, ok=%v err=%v", ok, err)
	}

	if err := IncrementRateWindow(ctx, db, "d1", "u1", t0); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := IncrementRateWindow(ctx, db, "d1", "u1", t0.Add(time.Hour)); err != nil {
		t.Fatalf("increment: %v", err)
	}

	w, ok, err := GetRateWindow(ctx, db, "d1", "u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if w.Attempts != 2 {
		t.Fatalf("attempts = %d; want 2", w.Attempts)
	}
	if !w.WindowStart.Equal(t0) {
		t.Fatalf("window start moved: %v", w.WindowStart)
	}
}

func TestRateWindow_Reset(t *testing.T) {
	db := newTestDB(t, &domain.RateWindow{})
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = IncrementRateWindow(ctx, db, "d1", "u1", t0)
	_ = IncrementRateWindow(ctx, db, "d1", "u1", t0)

	later := t0.Add(2 * time.Minute)
	if err := ResetRateWindow(ctx, db, "d1", "u1", later); err != nil {
		t.Fatalf("reset: %v", err)
	}
	w, _, _ := GetRateWindow(ctx, db, "d1", "u1")
	if w.Attempts != 0 || !w.WindowStart.Equal(later) {
		t.Fatalf("unexpected window after reset: %+v", w)
	}

	// Reset on a missing row creates it.
	if err := ResetRateWindow(ctx, db, "d1", "u2", later); err != nil {
		t.Fatalf("reset new: %v", err)
	}
	if _, ok, _ := GetRateWindow(ctx, db, "d1", "u2"); !ok {
		t.Fatalf("expected window for u2")
	}
}
