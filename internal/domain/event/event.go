package event

import "time"

// RemindPolicy governs when a notification for an event should fire.
// One-time events use the offset policies (on the day, one day before,
// three days before); recurring events use the interval policies.
type RemindPolicy string

const (
	PolicyDay0 RemindPolicy = "DAY0" // on the occurrence date
	PolicyT1   RemindPolicy = "T-1"  // one day before
	PolicyT3   RemindPolicy = "T-3"  // three days before

	PolicyWeekly  RemindPolicy = "WEEKLY"
	PolicyMonthly RemindPolicy = "MONTHLY"
	PolicyYearly  RemindPolicy = "YEARLY"

	PolicyDisabled RemindPolicy = "NONE"
)

// OneTimePolicies are the policies valid for one-time events, in the
// order the store is expected to filter on.
var OneTimePolicies = []RemindPolicy{PolicyDay0, PolicyT1, PolicyT3}

// RecurringPolicies are the policies valid for recurring events.
var RecurringPolicies = []RemindPolicy{PolicyWeekly, PolicyMonthly, PolicyYearly}

// IsRecurring reports whether the policy describes a repeating pattern.
func (p RemindPolicy) IsRecurring() bool {
	switch p {
	case PolicyWeekly, PolicyMonthly, PolicyYearly:
		return true
	}
	return false
}

// DefaultCategory is used when an event record carries no category.
const DefaultCategory = "reminder"

// Event is a calendar event as stored by the event store. For one-time
// events AnchorDate is the occurrence date itself; for recurring events
// it defines the weekday / day-of-month / month-day pattern.
type Event struct {
	ID           int64
	OwnerID      string // opaque recipient identity for the delivery channel
	Title        string
	AnchorDate   time.Time
	Category     string
	RemindPolicy RemindPolicy
	Pinned       bool // display ordering only, never affects matching
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
