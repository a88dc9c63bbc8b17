package app

import (
	"context"
	"sync"

	"event_reminder_bot/internal/domain/delivery"
	"event_reminder_bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

const (
	// maxTitleRunes is the display-safe limit providers impose on the
	// title slot; longer titles are truncated before building the payload.
	maxTitleRunes = 20
	// dispatchTimeSuffix is appended to the rendered date. The engine
	// tracks dates only, so every notification carries the same
	// nominal time-of-day.
	dispatchTimeSuffix = " 09:00"
)

// DispatchConfig is the per-deployment delivery configuration, injected
// at call time. An empty TemplateID disables dispatch entirely, which
// is a valid terminal state rather than an error. Fields is the same
// value the delivery adapter is constructed with.
type DispatchConfig struct {
	TemplateID string
	Fields     delivery.FieldMap
}

// Enabled reports whether a template has been configured.
func (c DispatchConfig) Enabled() bool { return c.TemplateID != "" }

// DispatchOutcome aggregates the settled results of one dispatch pass.
type DispatchOutcome struct {
	Sent     int
	Skipped  int
	Errors   []reminder.DispatchError
	Disabled bool
}

// Dispatcher fans out one delivery attempt per due item and joins on
// all of them before reducing the outcomes.
type Dispatcher struct {
	client delivery.Client
	logger *logrus.Entry
}

func NewDispatcher(client delivery.Client, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// itemOutcome is one attempt's settled result. Each goroutine writes
// only its own slot of the results slice; counters are reduced after
// the join so no state is shared between attempts.
type itemOutcome struct {
	sent    bool
	skipped bool
	err     *reminder.DispatchError
}

// Dispatch attempts delivery for every due item with a non-empty owner.
// Attempts run concurrently; a failure never aborts sibling attempts,
// and Dispatch returns only after every attempt has settled.
func (d *Dispatcher) Dispatch(ctx context.Context, due []reminder.DueItem, cfg DispatchConfig) DispatchOutcome {
	if !cfg.Enabled() {
		d.logger.Info("Dispatch disabled: no template configured. Due list computed but nothing sent.")
		return DispatchOutcome{Disabled: true}
	}

	results := make([]itemOutcome, len(due))
	var wg sync.WaitGroup
	for i, item := range due {
		if item.OwnerID == "" {
			// No recipient identity: skip without attempting delivery.
			results[i] = itemOutcome{skipped: true}
			continue
		}
		wg.Add(1)
		go func(i int, item reminder.DueItem) {
			defer wg.Done()
			results[i] = d.attempt(ctx, item, cfg)
		}(i, item)
	}
	wg.Wait()

	outcome := DispatchOutcome{}
	for _, r := range results {
		switch {
		case r.sent:
			outcome.Sent++
		case r.skipped:
			outcome.Skipped++
		case r.err != nil:
			outcome.Errors = append(outcome.Errors, *r.err)
		}
	}
	d.logger.WithFields(logrus.Fields{
		"due":     len(due),
		"sent":    outcome.Sent,
		"skipped": outcome.Skipped,
		"errors":  len(outcome.Errors),
	}).Info("Dispatch pass completed")
	return outcome
}

func (d *Dispatcher) attempt(ctx context.Context, item reminder.DueItem, cfg DispatchConfig) itemOutcome {
	payload := map[string]string{
		cfg.Fields.Title: truncateRunes(item.Title, maxTitleRunes),
		cfg.Fields.Date:  item.OccurrenceDate.Format("2006-01-02") + dispatchTimeSuffix,
		cfg.Fields.Note:  item.Category,
	}

	err := d.client.Send(ctx, item.OwnerID, cfg.TemplateID, payload)
	if err == nil {
		return itemOutcome{sent: true}
	}
	if delivery.IsNotSubscribed(err) {
		d.logger.WithFields(logrus.Fields{
			"owner_id": item.OwnerID,
			"title":    item.Title,
		}).Debug("Recipient not subscribed, counting as skipped")
		return itemOutcome{skipped: true}
	}
	de := delivery.AsError(err, "SEND_FAILED")
	d.logger.WithError(err).WithFields(logrus.Fields{
		"owner_id": item.OwnerID,
		"title":    item.Title,
		"code":     de.Code,
	}).Error("Delivery attempt failed")
	return itemOutcome{err: &reminder.DispatchError{Code: de.Code, Message: de.Message}}
}

// truncateRunes shortens s to at most n runes, multibyte-safe.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
