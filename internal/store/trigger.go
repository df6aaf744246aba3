package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Trigger represents one fired trigger event.
type Trigger struct {
	ID         string
	OccurredAt time.Time
	Phrase     string
	Held       time.Duration // how long the gesture was sustained
}

// DayCount is one day's trigger total.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TriggerRepository provides persistence and statistics for trigger
// events.
type TriggerRepository struct {
	db *sql.DB
}

// Triggers returns the trigger repository for this store.
func (s *Store) Triggers() *TriggerRepository {
	return &TriggerRepository{db: s.db}
}

// Add inserts a trigger event. A missing ID or timestamp is filled in.
func (r *TriggerRepository) Add(t *Trigger) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO triggers (id, occurred_at, phrase, held_ms) VALUES (?, ?, ?, ?)`,
		t.ID, t.OccurredAt.Unix(), t.Phrase, t.Held.Milliseconds(),
	)
	return err
}

// GetByID retrieves one trigger event.
func (r *TriggerRepository) GetByID(id string) (*Trigger, error) {
	t := &Trigger{}
	var occurredAt int64
	var heldMs int64

	err := r.db.QueryRow(
		`SELECT id, occurred_at, phrase, held_ms FROM triggers WHERE id = ?`,
		id,
	).Scan(&t.ID, &occurredAt, &t.Phrase, &heldMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.OccurredAt = time.Unix(occurredAt, 0)
	t.Held = time.Duration(heldMs) * time.Millisecond
	return t, nil
}

// CountSince returns the number of triggers at or after the given time.
func (r *TriggerRepository) CountSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM triggers WHERE occurred_at >= ?`,
		since.Unix(),
	).Scan(&count)
	return count, err
}

// TodayCount returns the number of triggers since local midnight.
func (r *TriggerRepository) TodayCount(now time.Time) (int, error) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return r.CountSince(midnight)
}

// DailySeries returns per-day totals for the last `days` days,
// including today, oldest first. Days without triggers appear with a
// zero count.
func (r *TriggerRepository) DailySeries(now time.Time, days int) ([]DayCount, error) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	rows, err := r.db.Query(
		`SELECT occurred_at FROM triggers WHERE occurred_at >= ? ORDER BY occurred_at`,
		start.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		day := time.Unix(ts, 0).In(now.Location()).Format("2006-01-02")
		counts[day]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	series := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, DayCount{Date: day, Count: counts[day]})
	}
	return series, nil
}

// HourlyDistribution returns trigger totals bucketed by local hour of
// day, over the whole history.
func (r *TriggerRepository) HourlyDistribution(loc *time.Location) ([24]int, error) {
	var dist [24]int
	if loc == nil {
		loc = time.Local
	}

	rows, err := r.db.Query(`SELECT occurred_at FROM triggers`)
	if err != nil {
		return dist, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return dist, err
		}
		dist[time.Unix(ts, 0).In(loc).Hour()]++
	}
	return dist, rows.Err()
}

// Recent returns the latest trigger events, newest first.
func (r *TriggerRepository) Recent(limit int) ([]*Trigger, error) {
	rows, err := r.db.Query(
		`SELECT id, occurred_at, phrase, held_ms FROM triggers
		 ORDER BY occurred_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*Trigger
	for rows.Next() {
		t := &Trigger{}
		var occurredAt, heldMs int64
		if err := rows.Scan(&t.ID, &occurredAt, &t.Phrase, &heldMs); err != nil {
			return nil, err
		}
		t.OccurredAt = time.Unix(occurredAt, 0)
		t.Held = time.Duration(heldMs) * time.Millisecond
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}
