package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"dune_notification_bot/internal/app"
	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"
	"dune_notification_bot/internal/infra/config"
	"dune_notification_bot/internal/infra/dune"
	"dune_notification_bot/internal/infra/logger"
	"dune_notification_bot/internal/infra/scheduler"
	"dune_notification_bot/internal/infra/telegram"

	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get().WithField("app", "dune-notification-bot")
	log.WithFields(map[string]any{
		"environment":      cfg.Environment,
		"schedule_enabled": cfg.ScheduleEnabled,
	}).Info("Starting Dune notification bot")

	library, err := config.LoadQueryLibrary(cfg.QueriesFile)
	if err != nil {
		log.Fatalf("FATAL: Could not load query library: %v", err)
	}
	log.WithField("queries", len(library.Queries)).Info("Query library loaded")

	// Remote analytics service client.
	duneClient := dune.NewClient(cfg.DuneAPIKey, log)

	pollPolicy := app.DefaultPollPolicy()
	pollPolicy.MaxWait = cfg.QueryTimeout
	executor := app.NewQueryExecutor(duneClient, pollPolicy, log)

	// Telegram bot and its adapter implementing the domain client.
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telebot handler error")
		},
	})
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	adapter := telegram.NewTelebotAdapter(bot)
	dispatcher := app.NewResultDispatcher(adapter, app.DefaultSendRetryPolicy(), log)

	mainJob, mainRenderer := jobForQuery(library, cfg.MainQueryID, fmt.Sprintf("Dune Query #%d", cfg.MainQueryID))

	var summaryJob *query.Job
	summaryRenderer := &notification.RowRenderer{Title: "24h Summary"}
	if cfg.SummaryQueryID != 0 {
		job, renderer := jobForQuery(library, cfg.SummaryQueryID, "24h Summary")
		summaryJob = &job
		summaryRenderer = renderer
	}
	summary := app.NewSummaryAggregator(executor, summaryRenderer, log)

	tracker := app.NewStatusTracker()
	cycles := app.NewCycleService(executor, dispatcher, summary, tracker, app.CycleConfig{
		MainJob:         mainJob,
		SummaryJob:      summaryJob,
		ChatID:          cfg.ChannelID,
		RowDelay:        cfg.RowDelay,
		RowRenderer:     mainRenderer,
		SummaryRenderer: summaryRenderer,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telegram.RegisterBotCommands(ctx, bot, cfg, library, tracker, cycles, log)
	log.Info("Bot command handlers registered")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ScheduleEnabled {
		daily := scheduler.NewDailyScheduler(cycles, tracker, log, cfg.ScheduleTime)
		g.Go(func() error {
			if err := daily.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.WithField("schedule_time", cfg.ScheduleTime.String()).Info("Daily scheduler enabled")
	} else {
		log.Info("Scheduling disabled; only interactive commands are active")
	}

	g.Go(func() error {
		go func() {
			<-gctx.Done()
			bot.Stop()
		}()
		bot.Start()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	log.Info("Application shut down gracefully")
}

// jobForQuery resolves a query ID against the library so configured
// rendering applies to scheduled jobs too; queries outside the library get
// the default all-columns renderer.
func jobForQuery(library *config.QueryLibrary, queryID int64, fallbackTitle string) (query.Job, *notification.RowRenderer) {
	if name, spec, ok := library.ByID(queryID); ok {
		return query.Job{QueryID: queryID, Name: name}, spec.Renderer()
	}
	return query.Job{QueryID: queryID}, &notification.RowRenderer{Title: fallbackTitle}
}
