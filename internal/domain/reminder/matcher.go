package reminder

import (
	"sort"
	"time"

	"event_reminder_bot/internal/domain/event"
)

// dupKey is the composite identity of a due notification within one
// run. A one-time event and a resolved recurring event can coincide on
// all four fields; only the first emission survives.
type dupKey struct {
	owner      string
	title      string
	occurrence string // YYYY-MM-DD
	tag        string
}

// MatchDue decides which events are due for notification on today's
// date. oneTime is expected to be pre-filtered by the store to the
// [today, today+7] window; recurring events are resolved here, not
// filtered by date.
//
// The returned list is deduplicated on (owner, title, occurrence, tag)
// and ordered pinned-first, then by occurrence date ascending. Events
// whose policy does not belong to their category are ignored.
func MatchDue(oneTime, recurring []*event.Event, today time.Time) []DueItem {
	today = DateOnly(today)

	seen := make(map[dupKey]struct{})
	due := make([]DueItem, 0, len(oneTime)+len(recurring))
	emit := func(item DueItem) {
		key := dupKey{
			owner:      item.OwnerID,
			title:      item.Title,
			occurrence: item.OccurrenceDate.Format("2006-01-02"),
			tag:        item.RemindTag,
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		due = append(due, item)
	}

	for _, ev := range oneTime {
		occurrence := DateOnly(ev.AnchorDate)
		diff := daysBetween(today, occurrence)
		var hit bool
		switch ev.RemindPolicy {
		case event.PolicyDay0:
			hit = diff == 0
		case event.PolicyT1:
			hit = diff == 1
		case event.PolicyT3:
			hit = diff == 3
		}
		if !hit {
			continue
		}
		emit(DueItem{
			OwnerID:        ev.OwnerID,
			Title:          ev.Title,
			OccurrenceDate: occurrence,
			Category:       categoryOrDefault(ev.Category),
			RemindTag:      string(ev.RemindPolicy),
			Pinned:         ev.Pinned,
		})
	}

	for _, ev := range recurring {
		if !ev.RemindPolicy.IsRecurring() {
			continue
		}
		next := NextOccurrence(ev.AnchorDate, ev.RemindPolicy, today)
		var tag string
		switch daysBetween(today, next) {
		case 0:
			tag = string(ev.RemindPolicy)
		case 1:
			tag = string(event.PolicyT1)
		case 3:
			tag = string(event.PolicyT3)
		default:
			continue
		}
		emit(DueItem{
			OwnerID:        ev.OwnerID,
			Title:          ev.Title,
			OccurrenceDate: next,
			Category:       categoryOrDefault(ev.Category),
			RemindTag:      tag,
			Pinned:         ev.Pinned,
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Pinned != due[j].Pinned {
			return due[i].Pinned
		}
		return due[i].OccurrenceDate.Before(due[j].OccurrenceDate)
	})
	return due
}

func categoryOrDefault(category string) string {
	if category == "" {
		return event.DefaultCategory
	}
	return category
}

// daysBetween counts whole calendar days from one date to another,
// immune to DST by comparing the dates in UTC.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}
