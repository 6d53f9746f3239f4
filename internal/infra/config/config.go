package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TimeOfDay is a validated wall-clock trigger time (24-hour, local).
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses an "HH:MM" string. A malformed value is a
// configuration error and is fatal at startup, never retried.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: hour out of range", s)
	}
	if minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: minute out of range", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DuneAPIKey      string
	AdminTelegramID int64

	ScheduleEnabled bool
	ScheduleTime    TimeOfDay
	ChannelID       int64 // destination chat for scheduled results
	MainQueryID     int64
	SummaryQueryID  int64 // 0 disables the summary step

	RowDelay     time.Duration // minimum delay between row notifications
	QueryTimeout time.Duration // overall bound on one query execution

	LogLevel    string
	Environment string
	QueriesFile string // optional YAML query library
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DuneAPIKey = os.Getenv("DUNE_API_KEY")
	if cfg.DuneAPIKey == "" {
		return nil, fmt.Errorf("DUNE_API_KEY is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.ScheduleEnabled = true
	if v := os.Getenv("SCHEDULE_ENABLED"); v != "" {
		cfg.ScheduleEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SCHEDULE_ENABLED: %w", err)
		}
	}

	// The scheduled pipeline needs its identifiers only when it is enabled.
	if cfg.ScheduleEnabled {
		cfg.MainQueryID, err = requiredInt64("MAIN_QUERY_ID")
		if err != nil {
			return nil, err
		}
		cfg.ChannelID, err = requiredInt64("CHANNEL_ID")
		if err != nil {
			return nil, err
		}
		scheduleTimeStr := os.Getenv("SCHEDULE_TIME")
		if scheduleTimeStr == "" {
			return nil, fmt.Errorf("SCHEDULE_TIME is not set")
		}
		cfg.ScheduleTime, err = ParseTimeOfDay(scheduleTimeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SCHEDULE_TIME: %w", err)
		}
	}

	if v := os.Getenv("SUMMARY_QUERY_ID"); v != "" {
		cfg.SummaryQueryID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUMMARY_QUERY_ID: %w", err)
		}
	}

	rowDelaySec, err := optionalInt("ROW_DELAY_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if rowDelaySec < 0 {
		return nil, fmt.Errorf("ROW_DELAY_SECONDS must be >= 0")
	}
	cfg.RowDelay = time.Duration(rowDelaySec) * time.Second

	queryTimeoutSec, err := optionalInt("QUERY_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if queryTimeoutSec <= 0 {
		return nil, fmt.Errorf("QUERY_TIMEOUT_SECONDS must be > 0")
	}
	cfg.QueryTimeout = time.Duration(queryTimeoutSec) * time.Second

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.QueriesFile = os.Getenv("QUERIES_FILE")
	if cfg.QueriesFile == "" {
		cfg.QueriesFile = "config/dune_queries.yaml"
	}

	return cfg, nil
}

func requiredInt64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func optionalInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
