package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayusman/tracematch/internal/location"
)

// FingerprintRepository stores location fingerprints as a fingerprint row plus one
// measurement row per access point.
type FingerprintRepository struct {
	db *sql.DB
}

// Fingerprints returns the fingerprint repository for this store.
func (s *Store) Fingerprints() *FingerprintRepository {
	return &FingerprintRepository{db: s.db}
}

// Create inserts a fingerprint and its measurements in a single transaction and returns its ID.
func (r *FingerprintRepository) Create(ctx context.Context, fp location.Fingerprint) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO fingerprint (location) VALUES (?)`, fp.Location)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fingerprint: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO measurement (fingerprint_id, bssid, level) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, m := range fp.Readings() {
		if _, err := stmt.ExecContext(ctx, id, m.BSSID, m.Level); err != nil {
			return 0, fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves one fingerprint by ID.
func (r *FingerprintRepository) Get(ctx context.Context, id int64) (location.Fingerprint, error) {
	var loc string
	err := r.db.QueryRowContext(ctx, `SELECT location FROM fingerprint WHERE id = ?`, id).Scan(&loc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return location.Fingerprint{}, ErrNotFound
		}
		return location.Fingerprint{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT bssid, level FROM measurement WHERE fingerprint_id = ? ORDER BY bssid`, id)
	if err != nil {
		return location.Fingerprint{}, err
	}
	defer rows.Close()

	fp := location.Fingerprint{Location: loc, Levels: make(map[string]int)}
	for rows.Next() {
		var bssid string
		var level int
		if err := rows.Scan(&bssid, &level); err != nil {
			return location.Fingerprint{}, err
		}
		fp.Levels[bssid] = level
	}
	return fp, rows.Err()
}

// List retrieves every fingerprint ordered by location then ID.
func (r *FingerprintRepository) List(ctx context.Context) ([]location.Fingerprint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.location, m.bssid, m.level
		 FROM fingerprint f
		 LEFT JOIN measurement m ON m.fingerprint_id = f.id
		 ORDER BY f.location, f.id, m.bssid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fps []location.Fingerprint
	lastID := int64(-1)
	for rows.Next() {
		var (
			id    int64
			loc   string
			bssid sql.NullString
			level sql.NullInt64
		)
		if err := rows.Scan(&id, &loc, &bssid, &level); err != nil {
			return nil, err
		}
		if id != lastID {
			fps = append(fps, location.Fingerprint{Location: loc, Levels: make(map[string]int)})
			lastID = id
		}
		if bssid.Valid {
			fps[len(fps)-1].Levels[bssid.String] = int(level.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fps, nil
}

// DeleteLocation removes every fingerprint recorded at a location and returns how many were removed.
// It returns ErrNotFound if the location has no fingerprints.
func (r *FingerprintRepository) DeleteLocation(ctx context.Context, loc string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fingerprint WHERE location = ?`, loc)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rowsAffected == 0 {
		return 0, ErrNotFound
	}

	return rowsAffected, nil
}

// Counts returns the number of fingerprints per location.
func (r *FingerprintRepository) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT location, COUNT(*) FROM fingerprint GROUP BY location`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var loc string
		var n int
		if err := rows.Scan(&loc, &n); err != nil {
			return nil, err
		}
		counts[loc] = n
	}

	return counts, rows.Err()
}
