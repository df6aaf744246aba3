package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Triggers table - one row per fired trigger event
		`CREATE TABLE IF NOT EXISTS triggers (
			id TEXT PRIMARY KEY,
			occurred_at INTEGER NOT NULL,
			phrase TEXT NOT NULL DEFAULT '',
			held_ms INTEGER NOT NULL DEFAULT 0
		)`,

		// Index for time-range statistics queries
		`CREATE INDEX IF NOT EXISTS idx_triggers_occurred_at ON triggers(occurred_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
