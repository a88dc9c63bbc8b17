package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"event_reminder_bot/internal/domain/event"

	"github.com/lib/pq"
)

// Custom errors
var ErrEventNotFound = fmt.Errorf("event not found")

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

const eventColumns = `id, owner_id, title, anchor_date, category, remind_policy, pinned, created_at, updated_at`

// QueryOneTime returns one-time events with an anchor date inside
// [from, to] and one of the given policies. Dates are compared on the
// date part only.
func (r *PostgresEventRepository) QueryOneTime(ctx context.Context, from, to time.Time, policies []event.RemindPolicy) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + `
               FROM events
               WHERE anchor_date::date BETWEEN $1 AND $2
                 AND remind_policy = ANY($3)
               ORDER BY anchor_date, id`

	rows, err := r.db.QueryContext(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"), pq.Array(policyStrings(policies)))
	if err != nil {
		return nil, fmt.Errorf("error querying one-time events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// QueryRecurring returns all events carrying one of the given recurring
// policies, regardless of anchor date.
func (r *PostgresEventRepository) QueryRecurring(ctx context.Context, policies []event.RemindPolicy) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + `
               FROM events
               WHERE remind_policy = ANY($1)
               ORDER BY anchor_date, id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(policyStrings(policies)))
	if err != nil {
		return nil, fmt.Errorf("error querying recurring events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByID fetches a single event. Backs the admin /event inspection
// command; the run pipeline itself never fetches by ID.
func (r *PostgresEventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	ev := &event.Event{}
	var category sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.OwnerID, &ev.Title, &ev.AnchorDate, &category, &ev.RemindPolicy, &ev.Pinned, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting event by ID: %w", err)
	}
	ev.Category = category.String
	return ev, nil
}

func scanEvents(rows *sql.Rows) ([]*event.Event, error) {
	events := make([]*event.Event, 0)
	for rows.Next() {
		ev := &event.Event{}
		var category sql.NullString
		if err := rows.Scan(&ev.ID, &ev.OwnerID, &ev.Title, &ev.AnchorDate, &category, &ev.RemindPolicy, &ev.Pinned, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		ev.Category = category.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func policyStrings(policies []event.RemindPolicy) []string {
	out := make([]string, len(policies))
	for i, p := range policies {
		out[i] = string(p)
	}
	return out
}
