package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"event_reminder_bot/internal/app"
	"event_reminder_bot/internal/domain/event"
	"event_reminder_bot/internal/domain/reminder"
	idb "event_reminder_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers registers the admin-only commands that trigger
// or preview a reminder run on demand.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, svc app.ReminderService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/run", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("You are not authorized to run this command.")
		}

		today, err := parseDateArg(c.Args())
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid date argument")
			return c.Send("Invalid date. Usage: /run [YYYY-MM-DD]")
		}

		result := svc.Run(ctx, today)
		handlerLogger.WithFields(logrus.Fields{
			"run_id": result.RunID,
			"due":    len(result.Due),
			"sent":   result.Sent,
		}).Info("Manual run completed")
		return c.Send(formatRunReport(result, false))
	})

	b.Handle("/preview", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/preview",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("You are not authorized to run this command.")
		}

		today, err := parseDateArg(c.Args())
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid date argument")
			return c.Send("Invalid date. Usage: /preview [YYYY-MM-DD]")
		}

		result := svc.Preview(ctx, today)
		return c.Send(formatRunReport(result, true))
	})

	b.Handle("/event", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/event",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("You are not authorized to run this command.")
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /event <ID>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid event ID format")
			return c.Send("Event ID must be a number.")
		}

		ev, next, err := svc.DescribeEvent(ctx, id)
		if err != nil {
			if errors.Is(err, idb.ErrEventNotFound) {
				handlerLogger.WithField("event_id", id).Warn("Event not found")
				return c.Send(fmt.Sprintf("No event with ID %d.", id))
			}
			handlerLogger.WithError(err).WithField("event_id", id).Error("Failed to describe event")
			return c.Send(fmt.Sprintf("Could not look up event %d: %s", id, err.Error()))
		}
		return c.Send(formatEventDetail(ev, next))
	})
}

func formatEventDetail(ev *event.Event, next time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Event %d: %s\n", ev.ID, ev.Title))
	sb.WriteString(fmt.Sprintf("Owner: %s | Policy: %s", ev.OwnerID, ev.RemindPolicy))
	if ev.Pinned {
		sb.WriteString(" | Pinned")
	}
	sb.WriteString(fmt.Sprintf("\nAnchor: %s", ev.AnchorDate.Format("2006-01-02")))
	if ev.RemindPolicy.IsRecurring() {
		sb.WriteString(fmt.Sprintf("\nNext occurrence: %s", next.Format("2006-01-02")))
	}
	return sb.String()
}

// parseDateArg interprets an optional single YYYY-MM-DD argument. No
// argument means "today in the business timezone" (zero time).
func parseDateArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Time{}, nil
	}
	if len(args) > 1 {
		return time.Time{}, fmt.Errorf("expected at most one argument, got %d", len(args))
	}
	t, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", args[0], err)
	}
	return t, nil
}

func formatRunReport(result *reminder.RunResult, preview bool) string {
	var sb strings.Builder
	if preview {
		sb.WriteString(fmt.Sprintf("Preview for %s\n", result.Today.Format("2006-01-02")))
	} else {
		sb.WriteString(fmt.Sprintf("Run %s for %s\n", result.RunID, result.Today.Format("2006-01-02")))
	}
	sb.WriteString(fmt.Sprintf("Due: %d", len(result.Due)))
	if !preview {
		sb.WriteString(fmt.Sprintf(" | Sent: %d | Skipped: %d | Errors: %d", result.Sent, result.Skipped, len(result.Errors)))
	}
	if result.Disabled {
		sb.WriteString("\nDispatch is disabled (no template configured).")
	}
	for _, item := range result.Due {
		sb.WriteString(fmt.Sprintf("\n• %s [%s] %s (%s)", item.OccurrenceDate.Format("2006-01-02"), item.RemindTag, item.Title, item.Category))
	}
	for _, e := range result.Errors {
		sb.WriteString(fmt.Sprintf("\n⚠ %s: %s", e.Code, e.Message))
	}
	return sb.String()
}
