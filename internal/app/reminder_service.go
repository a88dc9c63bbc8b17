package app

import (
	"context"
	"time"

	"event_reminder_bot/internal/domain/audit"
	"event_reminder_bot/internal/domain/event"
	"event_reminder_bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// oneTimeLookaheadDays bounds the store query window for one-time
// events. The largest remind offset is T-3, so a week of lookahead
// covers every policy with room for the store's inclusive bounds.
const oneTimeLookaheadDays = 7

// ReminderService defines the operations for running the reminder
// pipeline.
type ReminderService interface {
	// Run executes the full pipeline for today's date: query events,
	// match due notifications, dispatch them, record audit stats.
	// A zero today means "derive today in the business timezone".
	Run(ctx context.Context, today time.Time) *reminder.RunResult
	// Preview computes the due list without dispatching anything.
	Preview(ctx context.Context, today time.Time) *reminder.RunResult
	// DescribeEvent fetches one event and resolves its next occurrence
	// relative to today in the business timezone.
	DescribeEvent(ctx context.Context, id int64) (*event.Event, time.Time, error)
}

// ReminderServiceImpl implements ReminderService as a single-pass
// pipeline. It holds no cross-run state; repeated invocations with the
// same date recompute the same due list.
type ReminderServiceImpl struct {
	eventRepo  event.Repository
	dispatcher *Dispatcher
	auditSink  audit.Sink
	dispatch   DispatchConfig
	location   *time.Location
	logger     *logrus.Entry
}

func NewReminderService(
	repo event.Repository,
	dispatcher *Dispatcher,
	sink audit.Sink,
	dispatch DispatchConfig,
	location *time.Location,
	logger *logrus.Entry,
) *ReminderServiceImpl {
	return &ReminderServiceImpl{
		eventRepo:  repo,
		dispatcher: dispatcher,
		auditSink:  sink,
		dispatch:   dispatch,
		location:   location,
		logger:     logger,
	}
}

// Run executes the pipeline and always returns a well-formed result:
// store failures degrade to empty event lists, dispatch failures are
// per-item, and the audit write is fire-and-forget.
func (s *ReminderServiceImpl) Run(ctx context.Context, today time.Time) *reminder.RunResult {
	result := s.computeDue(ctx, today)

	outcome := s.dispatcher.Dispatch(ctx, result.Due, s.dispatch)
	result.Sent = outcome.Sent
	result.Skipped = outcome.Skipped
	result.Errors = outcome.Errors
	result.Disabled = outcome.Disabled

	s.recordStats(result)

	s.logger.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"today":   result.Today.Format("2006-01-02"),
		"due":     len(result.Due),
		"sent":    result.Sent,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	}).Info("Reminder run completed")
	return result
}

// Preview computes the due list for today without dispatching or
// auditing. Dispatch counters stay zero and Disabled reflects the
// configured template.
func (s *ReminderServiceImpl) Preview(ctx context.Context, today time.Time) *reminder.RunResult {
	result := s.computeDue(ctx, today)
	result.Disabled = !s.dispatch.Enabled()
	return result
}

func (s *ReminderServiceImpl) computeDue(ctx context.Context, today time.Time) *reminder.RunResult {
	today = s.businessDate(today)

	windowEnd := today.AddDate(0, 0, oneTimeLookaheadDays)
	oneTime, err := s.eventRepo.QueryOneTime(ctx, today, windowEnd, event.OneTimePolicies)
	if err != nil {
		// Fail-open: under-notifying beats crashing the run.
		s.logger.WithError(err).Warn("One-time event query failed, continuing with empty list")
		oneTime = nil
	}

	recurring, err := s.eventRepo.QueryRecurring(ctx, event.RecurringPolicies)
	if err != nil {
		s.logger.WithError(err).Warn("Recurring event query failed, continuing with empty list")
		recurring = nil
	}

	due := reminder.MatchDue(oneTime, recurring, today)
	return &reminder.RunResult{
		RunID:      reminder.NewRunID(),
		Today:      today,
		Due:        due,
		Errors:     []reminder.DispatchError{},
		TemplateID: s.dispatch.TemplateID,
	}
}

// DescribeEvent looks up a single event for the admin surface. For
// recurring events the returned date is the next resolved occurrence;
// for one-time events it is the anchor date itself. Not-found errors
// from the store pass through unwrapped so callers can match them.
func (s *ReminderServiceImpl) DescribeEvent(ctx context.Context, id int64) (*event.Event, time.Time, error) {
	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, time.Time{}, err
	}

	next := reminder.DateOnly(ev.AnchorDate)
	if ev.RemindPolicy.IsRecurring() {
		next = reminder.NextOccurrence(ev.AnchorDate, ev.RemindPolicy, s.businessDate(time.Time{}))
	}
	return ev, next, nil
}

// businessDate rebuilds t as midnight of its calendar date in the
// business location. Callers name a date, not an instant: a UTC-parsed
// "2025-10-05" must run as Oct 5 in the business zone, not as whatever
// day that instant lands on there. Zero t means today.
func (s *ReminderServiceImpl) businessDate(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now().In(s.location)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
}

// recordStats hands the run's stats to the audit sink without blocking
// the caller. Sink errors and panics are swallowed; the run's
// correctness never depends on the audit trail.
func (s *ReminderServiceImpl) recordStats(result *reminder.RunResult) {
	stats := result.Stats()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithField("panic", r).Error("Audit sink panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.auditSink.Record(ctx, stats); err != nil {
			s.logger.WithError(err).WithField("run_id", stats.RunID).Warn("Audit record failed")
		}
	}()
}
