package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	AdminTelegramID int64
	LogLevel        string
	Environment     string

	// BusinessTimezone is the IANA zone in which "today" is derived.
	// All date arithmetic runs in this zone; it must never collapse
	// back into a hardcoded offset.
	BusinessTimezone string
	BusinessLocation *time.Location

	// ReminderTemplateID selects the delivery template. Empty disables
	// dispatch: runs still compute due lists but send nothing.
	ReminderTemplateID string
	ReminderFieldTitle string
	ReminderFieldDate  string
	ReminderFieldNote  string

	CronSpecDailyRun string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables, and a
	// missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.BusinessTimezone = os.Getenv("BUSINESS_TIMEZONE")
	if cfg.BusinessTimezone == "" {
		cfg.BusinessTimezone = "Asia/Shanghai" // The original deployment ran on UTC+8.
	}
	cfg.BusinessLocation, err = time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}

	cfg.ReminderTemplateID = os.Getenv("REMINDER_TEMPLATE_ID")

	cfg.ReminderFieldTitle = os.Getenv("REMINDER_FIELD_TITLE")
	if cfg.ReminderFieldTitle == "" {
		cfg.ReminderFieldTitle = "title"
	}
	cfg.ReminderFieldDate = os.Getenv("REMINDER_FIELD_DATE")
	if cfg.ReminderFieldDate == "" {
		cfg.ReminderFieldDate = "date"
	}
	cfg.ReminderFieldNote = os.Getenv("REMINDER_FIELD_NOTE")
	if cfg.ReminderFieldNote == "" {
		cfg.ReminderFieldNote = "note"
	}

	cfg.CronSpecDailyRun = os.Getenv("CRON_SPEC_DAILY_RUN")
	if cfg.CronSpecDailyRun == "" {
		cfg.CronSpecDailyRun = "0 9 * * *" // Default: 9:00 AM daily, business time
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}
