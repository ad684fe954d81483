package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Rows are keyed by position rather than id: ids written by older
// versions are not guaranteed unique.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		position    INTEGER PRIMARY KEY,
		id          INTEGER NOT NULL,
		title       TEXT NOT NULL,
		content     TEXT NOT NULL,
		create_time TEXT NOT NULL,
		update_time TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes_meta (
		key   TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
}

// SQLiteStore keeps the collection as ordered rows in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the schema if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, create_time, update_time FROM notes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	c := NewCollection()
	for rows.Next() {
		var (
			n                      Note
			createTime, updateTime string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &createTime, &updateTime); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if n.CreateTime, err = time.Parse(time.RFC3339Nano, createTime); err != nil {
			return nil, fmt.Errorf("note %d create_time: %w", n.ID, err)
		}
		if n.UpdateTime, err = time.Parse(time.RFC3339Nano, updateTime); err != nil {
			return nil, fmt.Errorf("note %d update_time: %w", n.ID, err)
		}
		c.Notes = append(c.Notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT value FROM notes_meta WHERE key = 'next_id'`).Scan(&c.NextID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query next_id: %w", err)
	}
	c.normalize()
	return c, nil
}

func (s *SQLiteStore) Save(ctx context.Context, c *Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notes (position, id, title, content, create_time, update_time) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range c.Notes {
		_, err := stmt.ExecContext(ctx, i, n.ID, n.Title, n.Content, formatTime(n.CreateTime), formatTime(n.UpdateTime))
		if err != nil {
			return fmt.Errorf("insert note %d: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes_meta (key, value) VALUES ('next_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, c.NextID)
	if err != nil {
		return fmt.Errorf("store next_id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
