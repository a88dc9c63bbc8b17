package audit

import (
	"context"

	"event_reminder_bot/internal/domain/reminder"
)

// Sink records per-run statistics. Recording is best-effort: the run
// coordinator never waits on or fails from a sink error.
type Sink interface {
	Record(ctx context.Context, stats reminder.RunStats) error
}

// Nop is a Sink that discards everything. Used in tests and in
// deployments that do not keep an audit trail.
type Nop struct{}

func (Nop) Record(context.Context, reminder.RunStats) error { return nil }
