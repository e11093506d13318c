package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresStore(mock), mock
}

func TestPostgresStore_ReadAll(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 10, 1, 18, 30, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	rows := pgxmock.NewRows([]string{
		"id", "title", "venue", "event_date", "event_type", "description", "link", "source", "created_at", "updated_at",
	}).
		AddRow("evt-1", "Jazz Night", "Bangalore", "Dec 5", "Art", "No description available", "", "insider.in", created, nil).
		AddRow("evt-2", "Kathak Recital", "Ranga Shankara", "Date TBA", "Performance", "Classical", "", "highape.com", created, &updated)

	mock.ExpectQuery(`SELECT id, title, .* FROM events ORDER BY position`).WillReturnRows(rows)

	events, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Jazz Night", events[0].Title)
	assert.Equal(t, "Dec 5", events[0].Date)
	assert.Nil(t, events[0].UpdatedAt)
	require.NotNil(t, events[1].UpdatedAt)
	assert.True(t, updated.Equal(*events[1].UpdatedAt))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReadAllEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM events`).WillReturnRows(pgxmock.NewRows([]string{"id"}))

	events, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteAll(t *testing.T) {
	store, mock := newMockStore(t)
	events := sampleEvents()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM events`).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"events"}, eventColumns).WillReturnResult(int64(len(events)))
	mock.ExpectCommit()

	require.NoError(t, store.WriteAll(context.Background(), events))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteAllEmptySkipsCopy(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM events`).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	require.NoError(t, store.WriteAll(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteAllRollsBackOnCopyFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM events`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"events"}, eventColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.WriteAll(context.Background(), sampleEvents())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS events`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
