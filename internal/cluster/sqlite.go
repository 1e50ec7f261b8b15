package cluster

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crimson-sun/splinter/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS clusters (
	fingerprint TEXT PRIMARY KEY,
	first_seen  INTEGER NOT NULL,
	last_seen   INTEGER NOT NULL,
	count       INTEGER NOT NULL
);`

// SQLiteIndex persists clusters so recurrence survives restarts.
// Atomicity comes from the database: occurrences are a single upsert
// statement, so concurrent invocations with the same fingerprint
// serialize on the row, never create duplicates.
type SQLiteIndex struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteIndex opens (creating if needed) the cluster database at path.
// Use ":memory:" for tests.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cluster: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cluster: create schema: %w", err)
	}
	return &SQLiteIndex{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// LookupOrCreate implements Index.
func (s *SQLiteIndex) LookupOrCreate(ctx context.Context, fp string) (model.FailureCluster, error) {
	now := s.now().UTC().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.FailureCluster{}, fmt.Errorf("cluster: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO clusters (fingerprint, first_seen, last_seen, count)
		 VALUES (?, ?, ?, 0)
		 ON CONFLICT(fingerprint) DO NOTHING`, fp, now, now)
	if err != nil {
		return model.FailureCluster{}, fmt.Errorf("cluster: upsert: %w", err)
	}

	c, err := scanCluster(tx.QueryRowContext(ctx,
		`SELECT fingerprint, first_seen, last_seen, count FROM clusters WHERE fingerprint = ?`, fp))
	if err != nil {
		return model.FailureCluster{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.FailureCluster{}, fmt.Errorf("cluster: commit: %w", err)
	}
	return c, nil
}

// RecordOccurrence implements Index.
func (s *SQLiteIndex) RecordOccurrence(ctx context.Context, fp string) (model.FailureCluster, error) {
	now := s.now().UTC().Unix()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO clusters (fingerprint, first_seen, last_seen, count)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			count = count + 1,
			last_seen = excluded.last_seen
		 RETURNING fingerprint, first_seen, last_seen, count`, fp, now, now)
	return scanCluster(row)
}

// List implements Index.
func (s *SQLiteIndex) List(ctx context.Context) ([]model.FailureCluster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, first_seen, last_seen, count
		 FROM clusters ORDER BY last_seen DESC, fingerprint ASC`)
	if err != nil {
		return nil, fmt.Errorf("cluster: list: %w", err)
	}
	defer rows.Close()

	var out []model.FailureCluster
	for rows.Next() {
		var c model.FailureCluster
		var first, last int64
		if err := rows.Scan(&c.Fingerprint, &first, &last, &c.Count); err != nil {
			return nil, fmt.Errorf("cluster: scan: %w", err)
		}
		c.FirstSeen = time.Unix(first, 0).UTC()
		c.LastSeen = time.Unix(last, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCluster(row *sql.Row) (model.FailureCluster, error) {
	var c model.FailureCluster
	var first, last int64
	if err := row.Scan(&c.Fingerprint, &first, &last, &c.Count); err != nil {
		return model.FailureCluster{}, fmt.Errorf("cluster: scan: %w", err)
	}
	c.FirstSeen = time.Unix(first, 0).UTC()
	c.LastSeen = time.Unix(last, 0).UTC()
	return c, nil
}
