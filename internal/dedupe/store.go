package dedupe

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists seen fingerprints across runs. Entries older than the
// retention window are purged on open, so the store never grows unbounded.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string, retention time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(retention); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(retention time.Duration) error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS fingerprints (
			fingerprint TEXT PRIMARY KEY,
			last_seen   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fingerprints_last_seen ON fingerprints(last_seen);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	if retention > 0 {
		if _, err := s.Prune(retention); err != nil {
			return fmt.Errorf("purging expired fingerprints: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Load returns the full fingerprint history as an in-memory set.
func (s *Store) Load() (map[string]time.Time, error) {
	rows, err := s.readDB.Query("SELECT fingerprint, last_seen FROM fingerprints")
	if err != nil {
		return nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]time.Time)
	for rows.Next() {
		var fp string
		var lastSeen time.Time
		if err := rows.Scan(&fp, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		seen[fp] = lastSeen
	}
	return seen, rows.Err()
}

// Record upserts the fingerprints with seenAt as their last-seen time.
// On overlapping keys the latest writer wins, which merges cleanly with
// entries written by other runs.
func (s *Store) Record(fingerprints []string, seenAt time.Time) error {
	if len(fingerprints) == 0 {
		return nil
	}

	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO fingerprints (fingerprint, last_seen) VALUES (?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET last_seen = excluded.last_seen
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, fp := range fingerprints {
		if _, err := stmt.Exec(fp, seenAt); err != nil {
			return fmt.Errorf("recording fingerprint %s: %w", fp, err)
		}
	}

	return tx.Commit()
}

// Prune deletes fingerprints last seen before the retention window and
// returns how many were removed.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.writeDB.Exec("DELETE FROM fingerprints WHERE last_seen < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning fingerprints: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns the fingerprint count and on-disk size of the store.
func (s *Store) Stats(dbPath string) (count int64, size int64, err error) {
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting fingerprints: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}

func (s *Store) SetLastRun() error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES ('last_run', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().Format(time.RFC3339))
	return err
}

// LastRun returns the previous run time, or the zero time when no run has
// been recorded.
func (s *Store) LastRun() time.Time {
	var value string
	if err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = 'last_run'").Scan(&value); err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
