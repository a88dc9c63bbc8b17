// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"event_reminder_bot/internal/domain/delivery"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the delivery.Client interface on top of
// gopkg.in/telebot.v3. Telegram has no server-side message templates,
// so the adapter renders the payload slots into message text itself;
// the template ID picks the layout.
type TelebotAdapter struct {
	bot *telebot.Bot
	// fields is the same FieldMap value the dispatcher builds payloads
	// with; sharing it keeps the key names from diverging.
	fields delivery.FieldMap
}

func NewTelebotAdapter(b *telebot.Bot, fields delivery.FieldMap) *TelebotAdapter {
	return &TelebotAdapter{bot: b, fields: fields}
}

// Send delivers one reminder to the recipient's chat. Recipients who
// blocked or never started the bot surface as a NOT_SUBSCRIBED coded
// error so the dispatcher can count them as skipped.
func (tba *TelebotAdapter) Send(_ context.Context, recipientID, templateID string, payload map[string]string) error {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return &delivery.Error{Code: "BAD_RECIPIENT", Message: fmt.Sprintf("recipient %q is not a chat ID", recipientID)}
	}

	text := tba.render(templateID, payload)
	recipient := &telebot.User{ID: chatID}
	_, err = tba.bot.Send(recipient, text, &telebot.SendOptions{})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (tba *TelebotAdapter) render(templateID string, payload map[string]string) string {
	title := payload[tba.fields.Title]
	date := payload[tba.fields.Date]
	note := payload[tba.fields.Note]

	switch templateID {
	case "reminder_compact":
		return fmt.Sprintf("🔔 %s — %s", title, date)
	default:
		return fmt.Sprintf("🔔 %s\n📅 %s\n%s", title, date, note)
	}
}

// classify maps telebot errors onto coded delivery errors.
func classify(err error) error {
	if errors.Is(err, telebot.ErrBlockedByUser) || errors.Is(err, telebot.ErrUserIsDeactivated) || errors.Is(err, telebot.ErrNotStartedByUser) {
		return &delivery.Error{Code: delivery.CodeNotSubscribed, Message: err.Error()}
	}

	var tbErr *telebot.Error
	if errors.As(err, &tbErr) {
		// A 403 means the bot cannot reach this chat at all; treat any
		// flavor of it as an unsubscribed recipient.
		if tbErr.Code == 403 || strings.Contains(tbErr.Description, "bot can't initiate conversation") {
			return &delivery.Error{Code: delivery.CodeNotSubscribed, Message: tbErr.Description}
		}
		return &delivery.Error{Code: fmt.Sprintf("TELEGRAM_%d", tbErr.Code), Message: tbErr.Description}
	}
	return &delivery.Error{Code: "SEND_FAILED", Message: err.Error()}
}
