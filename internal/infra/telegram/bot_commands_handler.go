// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dune_notification_bot/internal/app"
	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"
	"dune_notification_bot/internal/domain/schedule"
	"dune_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands wires the interactive command surface: onboarding,
// the health-check status view, the manual cycle trigger and ad-hoc query
// execution. Long-running operations reply immediately and finish in a
// background goroutine so the poller stays responsive.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig,
	library *config.QueryLibrary,
	tracker *app.StatusTracker,
	cycles *app.CycleService,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "bot_commands")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")
		return c.Send("Hi! I post Dune Analytics query results on a daily schedule. Use /help for the available commands.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("`/status`\n - Show the last scheduled run and when the next one fires.\n\n")
		helpText.WriteString("`/query <name|id>`\n - Execute a Dune query and post its rows here.\n\n")
		helpText.WriteString("`/latest <name|id>`\n - Post the most recent stored results without re-executing.\n\n")
		helpText.WriteString("`/help`\n - Show this help message.")
		if senderID == cfg.AdminTelegramID {
			helpText.WriteString("\n\nAdmin commands:\n\n")
			helpText.WriteString("`/run`\n - Trigger one full scheduled cycle right now.")
		}
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/status", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/status").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /status command")
		return c.Send(formatStatus(tracker.Snapshot()))
	})

	b.Handle("/run", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithField("command", "/run").WithField("sender_id", senderID)
		if senderID != cfg.AdminTelegramID {
			logCtx.Warn("Unauthorized /run attempt")
			return c.Send("Sorry, only the administrator can trigger a cycle manually.")
		}
		logCtx.Info("Manual cycle trigger requested")

		chatID := c.Chat().ID
		go func() {
			if err := cycles.RunCycle(ctx, schedule.TriggerManual); err != nil {
				if err == app.ErrCycleInProgress {
					sendReply(b, chatID, "A cycle is already running; try again after it finishes.", logCtx)
					return
				}
				sendReply(b, chatID, fmt.Sprintf("Cycle failed: %v", err), logCtx)
				return
			}
			sendReply(b, chatID, "Manual cycle completed.", logCtx)
		}()
		return c.Send("Starting a cycle now. Results go to the configured channel.")
	})

	b.Handle("/query", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/query").WithField("sender_id", c.Sender().ID)

		job, renderer, err := resolveJob(library, c.Args())
		if err != nil {
			return c.Send(err.Error())
		}
		logCtx = logCtx.WithField("query_id", job.QueryID)
		logCtx.Info("Ad-hoc query requested")

		chatID := c.Chat().ID
		go func() {
			report, err := cycles.RunQuery(ctx, job, chatID, renderer)
			if err != nil {
				logCtx.WithError(err).Error("Ad-hoc query failed")
				sendReply(b, chatID, fmt.Sprintf("Query %s failed: %v", job, err), logCtx)
				return
			}
			if report.Sent == 0 && report.Failed == 0 {
				sendReply(b, chatID, fmt.Sprintf("Query %s completed but returned no rows.", job), logCtx)
				return
			}
			sendReply(b, chatID, fmt.Sprintf("Query %s: %d row(s) sent, %d failed.", job, report.Sent, report.Failed), logCtx)
		}()
		return c.Send(fmt.Sprintf("Executing query %s. This may take up to a minute…", job))
	})

	b.Handle("/latest", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/latest").WithField("sender_id", c.Sender().ID)

		job, renderer, err := resolveJob(library, c.Args())
		if err != nil {
			return c.Send(err.Error())
		}
		logCtx = logCtx.WithField("query_id", job.QueryID)
		logCtx.Info("Latest results requested")

		chatID := c.Chat().ID
		go func() {
			report, err := cycles.RunLatest(ctx, job, chatID, renderer)
			if err != nil {
				logCtx.WithError(err).Error("Latest results fetch failed")
				sendReply(b, chatID, fmt.Sprintf("Could not fetch latest results for %s: %v", job, err), logCtx)
				return
			}
			if report.Sent == 0 && report.Failed == 0 {
				sendReply(b, chatID, fmt.Sprintf("No stored results for query %s.", job), logCtx)
			}
		}()
		return c.Send(fmt.Sprintf("Fetching latest stored results for query %s…", job))
	})
}

// resolveJob turns a command argument into a job and its renderer, looking
// the query library up by name first, then falling back to a raw numeric ID
// with the default all-columns rendering.
func resolveJob(library *config.QueryLibrary, args []string) (query.Job, *notification.RowRenderer, error) {
	if len(args) == 0 {
		return query.Job{}, nil, fmt.Errorf("usage: specify a query name or numeric query ID")
	}
	arg := args[0]

	if spec, ok := library.ByName(arg); ok {
		return query.Job{QueryID: spec.ID, Name: arg}, spec.Renderer(), nil
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return query.Job{}, nil, fmt.Errorf("unknown query %q: not in the query library and not a numeric ID", arg)
	}
	renderer := &notification.RowRenderer{Title: fmt.Sprintf("Dune Query #%d", id)}
	return query.Job{QueryID: id}, renderer, nil
}

// formatStatus renders the tracker snapshot for the health-check command.
func formatStatus(s schedule.RunStatus) string {
	var b strings.Builder
	b.WriteString("Scheduler status\n")
	if s.Running {
		b.WriteString("A cycle is running right now.\n")
	}
	if s.LastRunAt.IsZero() {
		b.WriteString("Last run: never\n")
	} else {
		fmt.Fprintf(&b, "Last run: %s\n", s.LastRunAt.Format(time.RFC1123))
		if s.LastOutcome != "" {
			fmt.Fprintf(&b, "Last outcome: %s\n", s.LastOutcome)
		}
	}
	if s.NextRunAt.IsZero() {
		b.WriteString("Next run: not scheduled")
	} else {
		fmt.Fprintf(&b, "Next run: %s", s.NextRunAt.Format(time.RFC1123))
	}
	return b.String()
}

func sendReply(b *telebot.Bot, chatID int64, text string, logCtx *logrus.Entry) {
	if _, err := b.Send(telebot.ChatID(chatID), text); err != nil {
		logCtx.WithError(err).Error("Failed to send reply message")
	}
}
