package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		position    INTEGER PRIMARY KEY,
		id          BIGINT NOT NULL,
		title       TEXT NOT NULL,
		content     TEXT NOT NULL,
		create_time TIMESTAMPTZ NOT NULL,
		update_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notes_meta (
		key   TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
}

// PostgresStore keeps the collection as ordered rows in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the schema if needed.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*Collection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, content, create_time, update_time FROM notes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Note])
	if err != nil {
		return nil, fmt.Errorf("collect notes: %w", err)
	}

	c := &Collection{Notes: notes}
	err = s.pool.QueryRow(ctx, `SELECT value FROM notes_meta WHERE key = 'next_id'`).Scan(&c.NextID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("query next_id: %w", err)
	}
	c.normalize()
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *Collection) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM notes`); err != nil {
			return fmt.Errorf("clear notes: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"notes"},
			[]string{"position", "id", "title", "content", "create_time", "update_time"},
			pgx.CopyFromSlice(len(c.Notes), func(i int) ([]any, error) {
				n := c.Notes[i]
				return []any{i, n.ID, n.Title, n.Content, n.CreateTime, n.UpdateTime}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy notes: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO notes_meta (key, value) VALUES ('next_id', $1)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, c.NextID)
		if err != nil {
			return fmt.Errorf("store next_id: %w", err)
		}
		return nil
	})
}
