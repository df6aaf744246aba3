package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTriggerRepository_AddAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	tr := &Trigger{
		Phrase: "Keep your hands free!",
		Held:   900 * time.Millisecond,
	}
	if err := repo.Add(tr); err != nil {
		t.Fatalf("add: %v", err)
	}
	if tr.ID == "" {
		t.Fatal("expected Add to assign an ID")
	}

	got, err := repo.GetByID(tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phrase != tr.Phrase {
		t.Errorf("phrase = %q, want %q", got.Phrase, tr.Phrase)
	}
	if got.Held != tr.Held {
		t.Errorf("held = %v, want %v", got.Held, tr.Held)
	}
}

func TestTriggerRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Triggers().GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTriggerRepository_TodayCount(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.Local)
	times := []time.Time{
		now.Add(-time.Hour),          // today
		now.Add(-2 * time.Hour),      // today
		now.Add(-26 * time.Hour),     // yesterday
		now.Add(-3 * 24 * time.Hour), // three days ago
	}
	for _, at := range times {
		if err := repo.Add(&Trigger{OccurredAt: at}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	count, err := repo.TodayCount(now)
	if err != nil {
		t.Fatalf("today count: %v", err)
	}
	if count != 2 {
		t.Errorf("today count = %d, want 2", count)
	}
}

func TestTriggerRepository_DailySeries(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.Local)
	for _, at := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-time.Hour),
		now.AddDate(0, 0, -1),
		now.AddDate(0, 0, -8), // outside the window
	} {
		if err := repo.Add(&Trigger{OccurredAt: at}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	series, err := repo.DailySeries(now, 7)
	if err != nil {
		t.Fatalf("daily series: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 days, got %d", len(series))
	}

	if series[6].Date != "2026-08-28" || series[6].Count != 2 {
		t.Errorf("today = %+v, want 2 on 2026-08-28", series[6])
	}
	if series[5].Count != 1 {
		t.Errorf("yesterday count = %d, want 1", series[5].Count)
	}
	for i := 0; i < 5; i++ {
		if series[i].Count != 0 {
			t.Errorf("day %s count = %d, want 0", series[i].Date, series[i].Count)
		}
	}
}

func TestTriggerRepository_HourlyDistribution(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	loc := time.Local
	at := time.Date(2026, 8, 28, 9, 30, 0, 0, loc)
	for i := 0; i < 3; i++ {
		if err := repo.Add(&Trigger{OccurredAt: at}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := repo.Add(&Trigger{OccurredAt: at.Add(13 * time.Hour)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	dist, err := repo.HourlyDistribution(loc)
	if err != nil {
		t.Fatalf("hourly distribution: %v", err)
	}
	if dist[9] != 3 {
		t.Errorf("hour 9 = %d, want 3", dist[9])
	}
	if dist[22] != 1 {
		t.Errorf("hour 22 = %d, want 1", dist[22])
	}
}

func TestTriggerRepository_Recent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		tr := &Trigger{OccurredAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Add(tr); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	recent, err := repo.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 triggers, got %d", len(recent))
	}
	if !recent[0].OccurredAt.After(recent[1].OccurredAt) {
		t.Error("expected newest-first ordering")
	}
}
