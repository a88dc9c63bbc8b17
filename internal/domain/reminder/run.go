package reminder

import (
	"time"

	"github.com/google/uuid"
)

// DueItem is one notification the engine decided to fire for a given
// run. It is transient; nothing persists it across runs.
type DueItem struct {
	OwnerID        string
	Title          string
	OccurrenceDate time.Time
	Category       string
	// RemindTag is the policy value that fired (e.g. "DAY0", "WEEKLY"),
	// or the synthetic lookahead tag "T-1"/"T-3" for a recurring event
	// matched ahead of its occurrence.
	RemindTag string
	Pinned    bool
}

// DispatchError is a per-item delivery failure that did not abort the
// run.
type DispatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunResult is the report produced by a single engine invocation. It is
// always well-formed: worst case it carries an empty due list and the
// errors that got it there.
type RunResult struct {
	RunID      string          `json:"run_id"`
	Today      time.Time       `json:"today"`
	Due        []DueItem       `json:"due"`
	Sent       int             `json:"sent"`
	Skipped    int             `json:"skipped"`
	Disabled   bool            `json:"disabled"`
	Errors     []DispatchError `json:"errors"`
	TemplateID string          `json:"dispatch_config_used"`
}

// Stats flattens the result into the shape the audit sink records.
func (r *RunResult) Stats() RunStats {
	return RunStats{
		RunID:      r.RunID,
		RunDate:    r.Today,
		DueCount:   len(r.Due),
		Sent:       r.Sent,
		Skipped:    r.Skipped,
		ErrorCount: len(r.Errors),
		Disabled:   r.Disabled,
	}
}

// RunStats is the per-run record handed to the audit sink.
type RunStats struct {
	RunID      string
	RunDate    time.Time
	DueCount   int
	Sent       int
	Skipped    int
	ErrorCount int
	Disabled   bool
}

// NewRunID returns a fresh identifier for one engine invocation.
func NewRunID() string {
	return uuid.NewString()
}
