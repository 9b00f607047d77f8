package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS known_outages (
	county     TEXT NOT NULL COLLATE NOCASE,
	key        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	first_seen TEXT NOT NULL,
	PRIMARY KEY (county, key)
)`

// SQLiteStore keeps the state of one county in a SQLite table. Several
// counties may share one database file.
type SQLiteStore struct {
	db     *sql.DB
	county string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, county string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStateIO, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", domain.ErrStateIO, err)
	}
	return &SQLiteStore{db: db, county: county}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*MonitorState, error) {
	st := New(s.county)
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, title, first_seen FROM known_outages WHERE county = ?", s.county)
	if err != nil {
		return st, fmt.Errorf("%w: query known outages: %w", domain.ErrStateIO, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, title, firstSeen string
		if err := rows.Scan(&key, &title, &firstSeen); err != nil {
			return New(s.county), fmt.Errorf("%w: scan known outage: %w", domain.ErrStateIO, err)
		}
		at, _ := time.Parse(time.RFC3339Nano, firstSeen)
		st.Known[key] = Seen{Title: title, FirstSeen: at}
	}
	if err := rows.Err(); err != nil {
		return New(s.county), fmt.Errorf("%w: read known outages: %w", domain.ErrStateIO, err)
	}
	return st, nil
}

// Save inserts every key of st in one transaction. Rows are never deleted,
// so a degraded in-memory state cannot shrink the persisted set.
func (s *SQLiteStore) Save(ctx context.Context, st *MonitorState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrStateIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO known_outages (county, key, title, first_seen) VALUES (?, ?, ?, ?)
		 ON CONFLICT (county, key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", domain.ErrStateIO, err)
	}
	defer stmt.Close()

	for _, key := range st.Keys() {
		seen := st.Known[key]
		if _, err := stmt.ExecContext(ctx, s.county, key, seen.Title, seen.FirstSeen.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("%w: insert %s: %w", domain.ErrStateIO, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrStateIO, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
