package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sample represents a recorded stroke sample stored in the database.
type Sample struct {
	ID          string          `json:"id"`
	GestureName string          `json:"gesture_name"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides CRUD operations for gesture samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts samples for a gesture in a single transaction, replacing any earlier
// recording of that gesture. It returns the generated sample IDs.
func (r *SampleRepository) Create(gestureName string, samples []json.RawMessage) ([]string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_name = ?`, gestureName); err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_samples (id, gesture_name, sample_index, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	now := time.Now()
	ids := make([]string, len(samples))
	for i, data := range samples {
		ids[i] = uuid.New().String()
		if _, err := stmt.Exec(ids[i], gestureName, i, string(data), now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByGesture retrieves all samples for a given gesture.
func (r *SampleRepository) GetByGesture(gestureName string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, gesture_name, sample_index, data, created_at
		 FROM gesture_samples
		 WHERE gesture_name = ?
		 ORDER BY sample_index`,
		gestureName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.GestureName, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteByGesture removes all samples for a given gesture.
func (r *SampleRepository) DeleteByGesture(gestureName string) error {
	_, err := r.db.Exec(`DELETE FROM gesture_samples WHERE gesture_name = ?`, gestureName)
	return err
}
