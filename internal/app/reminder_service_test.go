package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"event_reminder_bot/internal/domain/event"
	"event_reminder_bot/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	oneTime      []*event.Event
	recurring    []*event.Event
	byID         map[int64]*event.Event
	oneTimeErr   error
	recurringErr error

	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeEventRepo) QueryOneTime(_ context.Context, from, to time.Time, _ []event.RemindPolicy) ([]*event.Event, error) {
	f.gotFrom, f.gotTo = from, to
	return f.oneTime, f.oneTimeErr
}

func (f *fakeEventRepo) QueryRecurring(_ context.Context, _ []event.RemindPolicy) ([]*event.Event, error) {
	return f.recurring, f.recurringErr
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*event.Event, error) {
	if ev, ok := f.byID[id]; ok {
		return ev, nil
	}
	return nil, errors.New("event not found")
}

// recordingSink hands recorded stats to a channel so tests can wait on
// the fire-and-forget audit write.
type recordingSink struct {
	ch  chan reminder.RunStats
	err error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan reminder.RunStats, 1)}
}

func (s *recordingSink) Record(_ context.Context, stats reminder.RunStats) error {
	s.ch <- stats
	return s.err
}

func (s *recordingSink) wait(t *testing.T) reminder.RunStats {
	t.Helper()
	select {
	case stats := <-s.ch:
		return stats
	case <-time.After(2 * time.Second):
		t.Fatal("audit sink was never called")
		return reminder.RunStats{}
	}
}

func newTestService(repo event.Repository, sink *recordingSink, cfg DispatchConfig, respond func(string) error) (*ReminderServiceImpl, *fakeClient) {
	client := newFakeClient(respond)
	dispatcher := NewDispatcher(client, testLogger())
	svc := NewReminderService(repo, dispatcher, sink, cfg, time.UTC, testLogger())
	return svc, client
}

func TestRunFullPipeline(t *testing.T) {
	today := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		oneTime: []*event.Event{
			{OwnerID: "11", Title: "dentist", AnchorDate: time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC), RemindPolicy: event.PolicyT3},
		},
		recurring: []*event.Event{
			{OwnerID: "12", Title: "rent", AnchorDate: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), RemindPolicy: event.PolicyMonthly},
		},
	}
	sink := newRecordingSink()
	svc, client := newTestService(repo, sink, testDispatchCfg, nil)

	result := svc.Run(context.Background(), today)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, today, result.Today)
	require.Len(t, result.Due, 2)
	assert.Equal(t, 2, result.Sent)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.False(t, result.Disabled)
	assert.Equal(t, "tmpl-1", result.TemplateID)
	assert.Len(t, client.attempts(), 2)

	// Store query window is [today, today+7].
	assert.Equal(t, today, repo.gotFrom)
	assert.Equal(t, today.AddDate(0, 0, 7), repo.gotTo)

	stats := sink.wait(t)
	assert.Equal(t, result.RunID, stats.RunID)
	assert.Equal(t, 2, stats.DueCount)
	assert.Equal(t, 2, stats.Sent)
}

func TestRunFailsOpenOnStoreErrors(t *testing.T) {
	repo := &fakeEventRepo{
		oneTimeErr: errors.New("connection refused"),
		recurring: []*event.Event{
			{OwnerID: "12", Title: "rent", AnchorDate: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), RemindPolicy: event.PolicyMonthly},
		},
	}
	sink := newRecordingSink()
	svc, _ := newTestService(repo, sink, testDispatchCfg, nil)

	today := time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)
	result := svc.Run(context.Background(), today)

	// One-time category degraded to empty; recurring still processed.
	require.Len(t, result.Due, 1)
	assert.Equal(t, "rent", result.Due[0].Title)
	sink.wait(t)
}

func TestRunBothQueriesFailingStillReturnsResult(t *testing.T) {
	repo := &fakeEventRepo{
		oneTimeErr:   errors.New("down"),
		recurringErr: errors.New("down"),
	}
	sink := newRecordingSink()
	svc, client := newTestService(repo, sink, testDispatchCfg, nil)

	result := svc.Run(context.Background(), time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC))

	require.NotNil(t, result)
	assert.Empty(t, result.Due)
	assert.Zero(t, result.Sent)
	assert.Empty(t, client.attempts())
	stats := sink.wait(t)
	assert.Zero(t, stats.DueCount)
}

func TestRunWithDispatchDisabled(t *testing.T) {
	today := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		oneTime: []*event.Event{
			{OwnerID: "11", Title: "dentist", AnchorDate: today, RemindPolicy: event.PolicyDay0},
		},
	}
	sink := newRecordingSink()
	svc, client := newTestService(repo, sink, DispatchConfig{}, nil)

	result := svc.Run(context.Background(), today)

	assert.True(t, result.Disabled)
	assert.Zero(t, result.Sent)
	require.Len(t, result.Due, 1, "due list is still computed when dispatch is disabled")
	assert.Empty(t, client.attempts())
	stats := sink.wait(t)
	assert.True(t, stats.Disabled)
}

func TestRunSwallowsAuditFailure(t *testing.T) {
	repo := &fakeEventRepo{}
	sink := newRecordingSink()
	sink.err = errors.New("audit table missing")
	svc, _ := newTestService(repo, sink, testDispatchCfg, nil)

	result := svc.Run(context.Background(), time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, result)
	sink.wait(t)
}

func TestRunDerivesTodayInBusinessLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	repo := &fakeEventRepo{}
	sink := newRecordingSink()
	client := newFakeClient(nil)
	dispatcher := NewDispatcher(client, testLogger())
	svc := NewReminderService(repo, dispatcher, sink, testDispatchCfg, loc, testLogger())

	result := svc.Run(context.Background(), time.Time{})

	want := time.Now().In(loc)
	assert.Equal(t, want.Year(), result.Today.Year())
	assert.Equal(t, want.Month(), result.Today.Month())
	assert.Equal(t, want.Day(), result.Today.Day())
	assert.Equal(t, loc, result.Today.Location())
	sink.wait(t)
}

func TestRunHonorsRequestedCalendarDate(t *testing.T) {
	// A date argument arrives parsed as UTC midnight. West of UTC that
	// instant falls on the previous local day; the run must still
	// execute for the named date.
	loc := time.FixedZone("UTC-5", -5*3600)
	anchor := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		oneTime: []*event.Event{
			{OwnerID: "11", Title: "dentist", AnchorDate: anchor, RemindPolicy: event.PolicyT3},
		},
	}
	sink := newRecordingSink()
	client := newFakeClient(nil)
	dispatcher := NewDispatcher(client, testLogger())
	svc := NewReminderService(repo, dispatcher, sink, testDispatchCfg, loc, testLogger())

	requested, err := time.Parse("2006-01-02", "2025-10-05")
	require.NoError(t, err)

	result := svc.Run(context.Background(), requested)

	assert.Equal(t, "2025-10-05", result.Today.Format("2006-01-02"))
	assert.Equal(t, loc, result.Today.Location())
	require.Len(t, result.Due, 1, "T-3 match for Oct 8 must fire on the requested Oct 5")
	assert.Equal(t, "T-3", result.Due[0].RemindTag)
	sink.wait(t)
}

func TestDescribeEventResolvesNextOccurrence(t *testing.T) {
	anchor := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		byID: map[int64]*event.Event{
			7: {ID: 7, OwnerID: "11", Title: "rent", AnchorDate: anchor, RemindPolicy: event.PolicyMonthly},
			8: {ID: 8, OwnerID: "11", Title: "dentist", AnchorDate: anchor, RemindPolicy: event.PolicyDay0},
		},
	}
	sink := newRecordingSink()
	svc, _ := newTestService(repo, sink, testDispatchCfg, nil)

	ev, next, err := svc.DescribeEvent(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "rent", ev.Title)
	assert.False(t, next.Before(time.Now().AddDate(0, 0, -1)), "recurring next occurrence is never in the past")
	assert.LessOrEqual(t, next.Day(), 31)

	// One-time events report their anchor date unchanged.
	ev, next, err = svc.DescribeEvent(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "dentist", ev.Title)
	assert.Equal(t, anchor, next)
}

func TestDescribeEventPropagatesNotFound(t *testing.T) {
	repo := &fakeEventRepo{}
	sink := newRecordingSink()
	svc, _ := newTestService(repo, sink, testDispatchCfg, nil)

	_, _, err := svc.DescribeEvent(context.Background(), 404)
	assert.Error(t, err)
}

func TestPreviewComputesWithoutDispatching(t *testing.T) {
	today := time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		oneTime: []*event.Event{
			{OwnerID: "11", Title: "dentist", AnchorDate: today, RemindPolicy: event.PolicyDay0},
		},
	}
	sink := newRecordingSink()
	svc, client := newTestService(repo, sink, testDispatchCfg, nil)

	result := svc.Preview(context.Background(), today)

	require.Len(t, result.Due, 1)
	assert.Zero(t, result.Sent)
	assert.False(t, result.Disabled)
	assert.Empty(t, client.attempts())
	select {
	case <-sink.ch:
		t.Fatal("preview must not write audit records")
	case <-time.After(100 * time.Millisecond):
	}
}
