package service

import (
	"testing"
	"time"

	"studypath/internal/models"
)

func TestAwardItemXP(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	if status := env.engagement.Award(7, true, false); status != AwardApplied {
		t.Fatalf("Award() = %v, want %v", status, AwardApplied)
	}

	stats, err := env.engagement.Stats(7)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.XP != models.XPPerItem {
		t.Errorf("XP = %d, want %d", stats.XP, models.XPPerItem)
	}
	if stats.Streak != 0 || stats.LastStreakDate != "" {
		t.Errorf("streak = %d/%q, want untouched", stats.Streak, stats.LastStreakDate)
	}
}

func TestAwardNothingCompleted(t *testing.T) {
	env := newTestEnv(t)

	if status := env.engagement.Award(7, false, false); status != AwardApplied {
		t.Fatalf("Award() = %v, want %v", status, AwardApplied)
	}

	stats, err := env.engagement.Stats(7)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.XP != 0 || stats.Streak != 0 {
		t.Errorf("stats = %d XP / %d streak, want zero values", stats.XP, stats.Streak)
	}
}

func TestStreakAcrossDays(t *testing.T) {
	env := newTestEnv(t)

	day := func(d int) time.Time {
		return time.Date(2026, 3, 10+d, 20, 0, 0, 0, time.UTC)
	}

	steps := []struct {
		day        int
		wantStreak int
	}{
		{day: 0, wantStreak: 1},
		{day: 1, wantStreak: 2},
		{day: 2, wantStreak: 3},
		{day: 4, wantStreak: 1}, // a skipped day resets
		{day: 5, wantStreak: 2},
	}

	for _, step := range steps {
		env.setNow(day(step.day))
		if status := env.engagement.Award(7, true, true); status != AwardApplied {
			t.Fatalf("Award() on day %d = %v", step.day, status)
		}
		stats, err := env.engagement.Stats(7)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.Streak != step.wantStreak {
			t.Errorf("day %d: Streak = %d, want %d", step.day, stats.Streak, step.wantStreak)
		}
	}
}

func TestStreakCrossesMidnightInLocation(t *testing.T) {
	env := newTestEnv(t)

	// 23:30 and 00:30 the next calendar day are consecutive days in UTC
	env.setNow(time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC))
	env.engagement.Award(7, true, true)
	env.setNow(time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC))
	env.engagement.Award(7, true, true)

	stats, err := env.engagement.Stats(7)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Streak != 2 {
		t.Errorf("Streak = %d, want 2", stats.Streak)
	}
	if stats.LastStreakDate != "2026-03-11" {
		t.Errorf("LastStreakDate = %q, want 2026-03-11", stats.LastStreakDate)
	}
}

func TestStatsUnknownLearner(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.engagement.Stats(404)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats == nil {
		t.Fatal("Stats() = nil, want zero-valued stats")
	}
	if stats.XP != 0 || stats.Streak != 0 || stats.LastStreakDate != "" {
		t.Errorf("stats = %+v, want zero values", stats)
	}
}
