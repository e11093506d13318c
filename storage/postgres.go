package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"arts_scrooper/models"
)

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

var eventColumns = []string{
	"position", "id", "title", "venue", "event_date", "event_type",
	"description", "link", "source", "created_at", "updated_at",
}

const eventsSchema = `
	CREATE TABLE IF NOT EXISTS events (
		position    INTEGER NOT NULL,
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		venue       TEXT NOT NULL DEFAULT '',
		event_date  TEXT NOT NULL DEFAULT '',
		event_type  TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		link        TEXT NOT NULL DEFAULT '',
		source      TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_events_position ON events(position);`

// PostgresStore keeps the event list in an events table. Row order is kept
// in the position column.
type PostgresStore struct {
	pool pgxPool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	store := newPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func newPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, eventsSchema); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, venue, event_date, event_type, description, link, source, created_at, updated_at
		FROM events ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query events")
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		var updatedAt *time.Time
		if err := rows.Scan(&e.ID, &e.Title, &e.Venue, &e.Date, &e.EventType,
			&e.Description, &e.Link, &e.Source, &e.CreatedAt, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		e.UpdatedAt = updatedAt
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate events")
	}
	return events, nil
}

// WriteAll replaces the table contents in one transaction.
func (s *PostgresStore) WriteAll(ctx context.Context, events []models.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	abort := func(err error, msg string) error {
		_ = tx.Rollback(ctx)
		return eris.Wrap(err, msg)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM events`); err != nil {
		return abort(err, "postgres: clear events")
	}

	rows := make([][]any, 0, len(events))
	for i, e := range events {
		rows = append(rows, []any{
			i, e.ID, e.Title, e.Venue, e.Date, e.EventType,
			e.Description, e.Link, e.Source, e.CreatedAt, e.UpdatedAt,
		})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"events"}, eventColumns, pgx.CopyFromRows(rows)); err != nil {
			return abort(err, "postgres: copy events")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return abort(err, "postgres: commit")
	}
	return nil
}
