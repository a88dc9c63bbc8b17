package database

import (
	"context"
	"database/sql"
	"fmt"

	"event_reminder_bot/internal/domain/reminder"
)

// PostgresAuditSink records one row per engine run in the
// reminder_runs table. Callers treat Record as best-effort; the sink
// itself still reports errors so they can be logged.
type PostgresAuditSink struct {
	db *sql.DB
}

func NewPostgresAuditSink(db *sql.DB) *PostgresAuditSink {
	return &PostgresAuditSink{db: db}
}

func (s *PostgresAuditSink) Record(ctx context.Context, stats reminder.RunStats) error {
	query := `INSERT INTO reminder_runs (run_id, run_date, due_count, sent, skipped, error_count, disabled)
               VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		stats.RunID,
		stats.RunDate.Format("2006-01-02"),
		stats.DueCount,
		stats.Sent,
		stats.Skipped,
		stats.ErrorCount,
		stats.Disabled,
	)
	if err != nil {
		return fmt.Errorf("error recording run stats: %w", err)
	}
	return nil
}
