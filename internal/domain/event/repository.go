package event

import (
	"context"
	"time"
)

// Repository defines the read operations the reminder engine needs from
// the event store. The engine never writes events.
type Repository interface {
	// QueryOneTime returns one-time events whose anchor date falls in
	// [from, to] (inclusive) and whose policy is one of the given ones.
	QueryOneTime(ctx context.Context, from, to time.Time, policies []RemindPolicy) ([]*Event, error)
	// QueryRecurring returns all recurring events with one of the given
	// policies, regardless of anchor date.
	QueryRecurring(ctx context.Context, policies []RemindPolicy) ([]*Event, error)
	// GetByID fetches a single event for the admin inspection surface.
	GetByID(ctx context.Context, id int64) (*Event, error)
}
