package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists records in a local sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	text       TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	comment    TEXT NOT NULL DEFAULT '',
	meanings   TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS records_created_at ON records(created_at);
`

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating record schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record, assigning an id and timestamp if missing.
func (s *Store) Save(ctx context.Context, r *Record) error {
	r.Finalize()
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	meanings, err := json.Marshal(r.Meanings)
	if err != nil {
		return fmt.Errorf("encoding meanings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, type, text, source_url, tags, comment, meanings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Type, r.Text, r.SourceURL, string(tags), r.Comment, string(meanings), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving record %s: %w", r.ID, err)
	}
	return nil
}

// Get fetches one record by id. Returns sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, text, source_url, tags, comment, meanings, created_at
		 FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, text, source_url, tags, comment, meanings, created_at
		 FROM records ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a record by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var tags, meanings string
	var created time.Time
	if err := row.Scan(&r.ID, &r.Type, &r.Text, &r.SourceURL, &tags, &r.Comment, &meanings, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(meanings), &r.Meanings); err != nil {
		return nil, fmt.Errorf("decoding meanings for %s: %w", r.ID, err)
	}
	r.CreatedAt = created
	return &r, nil
}
