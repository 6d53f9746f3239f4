package telegram

import (
	"context"

	"dune_notification_bot/internal/domain/notification"
)

// Client defines an interface for sending notifications via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	// SendUnit delivers one rendered notification unit to a chat.
	SendUnit(ctx context.Context, chatID int64, unit notification.Unit) error

	// SendText delivers a plain text message to a chat.
	SendText(ctx context.Context, chatID int64, text string) error
}
