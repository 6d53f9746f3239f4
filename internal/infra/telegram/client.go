// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"dune_notification_bot/internal/domain/notification"
	domainTelegram "dune_notification_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the domain Client interface using the
// gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendUnit renders the unit as an HTML message and sends it to the chat.
// Errors are classified into the domain's rate-limited / transient / fatal
// categories so the dispatcher can decide whether to retry.
func (tba *TelebotAdapter) SendUnit(ctx context.Context, chatID int64, unit notification.Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tba.bot.Send(telebot.ChatID(chatID), FormatUnit(unit), &telebot.SendOptions{
		ParseMode:             telebot.ModeHTML,
		DisableWebPagePreview: true,
	})
	return classifySendError(err)
}

// SendText sends a plain text message to the chat.
func (tba *TelebotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tba.bot.Send(telebot.ChatID(chatID), text)
	return classifySendError(err)
}

// FormatUnit renders a notification unit as Telegram HTML: bold title,
// one "name: value" line per field, optional link line, italic footer.
func FormatUnit(unit notification.Unit) string {
	var b strings.Builder
	if unit.Title != "" {
		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(unit.Title))
	}
	for _, f := range unit.Fields {
		fmt.Fprintf(&b, "%s: <code>%s</code>\n", html.EscapeString(f.Name), html.EscapeString(f.Value))
	}
	if unit.Link != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">View transaction</a>\n", html.EscapeString(unit.Link))
	}
	if unit.Footer != "" {
		fmt.Fprintf(&b, "<i>%s</i>", html.EscapeString(unit.Footer))
	}
	return strings.TrimRight(b.String(), "\n")
}

// classifySendError maps telebot errors onto the domain send error
// categories. Flood errors carry the platform's retry-after hint; other API
// errors with a 4xx code are not retryable.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}

	var flood *telebot.FloodError
	if errors.As(err, &flood) {
		return &domainTelegram.RateLimitedError{
			RetryAfter: time.Duration(flood.RetryAfter) * time.Second,
			Err:        err,
		}
	}

	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		// Bad request, blocked bot, unknown chat: retrying cannot help.
		if apiErr.Code >= 400 && apiErr.Code < 500 {
			return &domainTelegram.FatalError{Err: err}
		}
	}

	return &domainTelegram.TransientError{Err: err}
}
