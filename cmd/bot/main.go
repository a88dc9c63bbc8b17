package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event_reminder_bot/internal/app"
	"event_reminder_bot/internal/domain/delivery"
	"event_reminder_bot/internal/infra/config"
	idb "event_reminder_bot/internal/infra/database"
	"event_reminder_bot/internal/infra/logger"
	"event_reminder_bot/internal/infra/scheduler"
	"event_reminder_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Event Reminder Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get().WithField("component", "main")
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s", cfg.LogLevel, cfg.Environment, cfg.BusinessTimezone)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories and Audit Sink
	eventRepo := idb.NewPostgresEventRepository(db)
	log.Info("Event repository initialized.")
	auditSink := idb.NewPostgresAuditSink(db)
	log.Info("Audit sink initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Get().WithError(err).WithField("component", "telebot")
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	// Delivery adapter and dispatch configuration share one field map,
	// so payload builder and reader agree on key names.
	fieldMap := delivery.FieldMap{
		Title: cfg.ReminderFieldTitle,
		Date:  cfg.ReminderFieldDate,
		Note:  cfg.ReminderFieldNote,
	}
	deliveryClient := telegram.NewTelebotAdapter(bot, fieldMap)
	dispatchCfg := app.DispatchConfig{
		TemplateID: cfg.ReminderTemplateID,
		Fields:     fieldMap,
	}
	if !dispatchCfg.Enabled() {
		log.Warn("REMINDER_TEMPLATE_ID not set: dispatch is disabled, runs will only compute due lists.")
	}

	// Initialize ReminderService
	dispatcher := app.NewDispatcher(deliveryClient, logger.Get().WithField("component", "dispatcher"))
	reminderService := app.NewReminderService(
		eventRepo,
		dispatcher,
		auditSink,
		dispatchCfg,
		cfg.BusinessLocation,
		logger.Get().WithField("component", "reminder_service"),
	)
	log.Info("Reminder service initialized.")

	// Initialize Scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		cfg.BusinessLocation,
		logger.Get().WithField("component", "scheduler"),
		cfg.CronSpecDailyRun,
	)
	if err := reminderScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start reminder scheduler: %v", err)
	}

	// Register Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telegram.RegisterAdminHandlers(ctx, bot, reminderService, cfg.AdminTelegramID, logger.Get().WithField("component", "telegram_handlers"))
	log.Info("Admin command handlers registered.")

	log.Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	reminderScheduler.Stop()
	bot.Stop()
	log.Info("Application shut down gracefully.")
}
