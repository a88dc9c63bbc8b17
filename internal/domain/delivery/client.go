package delivery

import (
	"context"
	"errors"
	"fmt"
)

// CodeNotSubscribed is the provider error code meaning the recipient
// cannot receive messages (blocked the bot, never started it, account
// deactivated). The dispatcher counts these as skipped, not as errors.
const CodeNotSubscribed = "NOT_SUBSCRIBED"

// FieldMap names the provider-side payload keys for the three semantic
// template slots. One value is built from configuration and shared by
// whoever builds payloads and whoever reads them, so the two can never
// disagree on key names.
type FieldMap struct {
	Title string
	Date  string
	Note  string
}

// Error is a coded delivery failure from the provider.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery failed (%s): %s", e.Code, e.Message)
}

// AsError extracts a coded delivery error from err, wrapping uncoded
// errors under the given fallback code.
func AsError(err error, fallbackCode string) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Code: fallbackCode, Message: err.Error()}
}

// IsNotSubscribed reports whether err is a not-subscribed delivery
// error.
func IsNotSubscribed(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == CodeNotSubscribed
}

// Client is the delivery channel the dispatcher sends through. This
// decouples the engine from the concrete bot/push library. The payload
// keys are the provider-side field names configured per deployment;
// the values fill the template's title/date/note slots.
type Client interface {
	Send(ctx context.Context, recipientID, templateID string, payload map[string]string) error
}
