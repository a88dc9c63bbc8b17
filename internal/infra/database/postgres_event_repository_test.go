package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"event_reminder_bot/internal/domain/event"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventTestColumns = []string{"id", "owner_id", "title", "anchor_date", "category", "remind_policy", "pinned", "created_at", "updated_at"}

func TestQueryOneTimeScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	anchor := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE anchor_date").
		WithArgs("2025-10-05", "2025-10-12", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(eventTestColumns).
			AddRow(int64(1), "11", "dentist", anchor, "health", "T-3", false, now, now).
			AddRow(int64(2), "12", "concert", anchor, nil, "DAY0", true, now, now))

	repo := NewPostgresEventRepository(db)
	from := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	events, err := repo.QueryOneTime(context.Background(), from, from.AddDate(0, 0, 7), event.OneTimePolicies)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "dentist", events[0].Title)
	assert.Equal(t, "health", events[0].Category)
	assert.Equal(t, event.PolicyT3, events[0].RemindPolicy)
	assert.Equal(t, "", events[1].Category, "NULL category scans to empty string")
	assert.True(t, events[1].Pinned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryOneTimePropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("WHERE anchor_date").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgresEventRepository(db)
	from := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	events, err := repo.QueryOneTime(context.Background(), from, from.AddDate(0, 0, 7), event.OneTimePolicies)

	assert.Error(t, err)
	assert.Nil(t, events)
}

func TestQueryRecurringScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	anchor := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE remind_policy").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(eventTestColumns).
			AddRow(int64(3), "12", "rent", anchor, "bills", "MONTHLY", false, now, now))

	repo := NewPostgresEventRepository(db)
	events, err := repo.QueryRecurring(context.Background(), event.RecurringPolicies)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.PolicyMonthly, events[0].RemindPolicy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRecurringEmptyResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("WHERE remind_policy").
		WillReturnRows(sqlmock.NewRows(eventTestColumns))

	repo := NewPostgresEventRepository(db)
	events, err := repo.QueryRecurring(context.Background(), event.RecurringPolicies)

	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events, "empty result is a list, not nil")
}

func TestGetByIDScansRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	anchor := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM events WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(eventTestColumns).
			AddRow(int64(7), "11", "rent", anchor, "bills", "MONTHLY", true, now, now))

	repo := NewPostgresEventRepository(db)
	ev, err := repo.GetByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), ev.ID)
	assert.Equal(t, "rent", ev.Title)
	assert.Equal(t, event.PolicyMonthly, ev.RemindPolicy)
	assert.True(t, ev.Pinned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM events WHERE id").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(eventTestColumns))

	repo := NewPostgresEventRepository(db)
	ev, err := repo.GetByID(context.Background(), 404)

	assert.Nil(t, ev)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
