package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Fingerprint table - one row per recorded scan at a known location
		`CREATE TABLE IF NOT EXISTS fingerprint (
			id INTEGER PRIMARY KEY,
			location TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Measurement table - signal level of each access point seen in a fingerprint
		`CREATE TABLE IF NOT EXISTS measurement (
			id INTEGER PRIMARY KEY,
			fingerprint_id INTEGER NOT NULL REFERENCES fingerprint(id) ON DELETE CASCADE,
			bssid TEXT NOT NULL,
			level INTEGER NOT NULL
		)`,

		// Gesture samples table - stores raw recorded strokes for training
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id TEXT PRIMARY KEY,
			gesture_name TEXT NOT NULL,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_fingerprint_location ON fingerprint(location)`,
		`CREATE INDEX IF NOT EXISTS idx_measurement_fingerprint_id ON measurement(fingerprint_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_name ON gesture_samples(gesture_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
