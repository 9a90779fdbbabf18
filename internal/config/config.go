package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	CORSAllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	CORSAllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	TelegramURL     string        `envconfig:"TELEGRAM_URL" default:"https://api.telegram.org"`
	TgBotToken      string        `envconfig:"TG_BOT_TOKEN"`
	DeliveryTimeout time.Duration `envconfig:"DELIVERY_TIMEOUT" default:"10s"`

	// ReminderAt is the daily trigger time ("HH:MM") used when the schedule
	// entry does not exist yet.
	ReminderAt string `envconfig:"REMINDER_AT" default:"20:00"`
	TimeZone   string `envconfig:"TIME_ZONE" default:"Europe/Moscow"`
}

// Load reads .env (if present) and the environment. A malformed trigger time
// or time zone is an error: the scheduler must refuse to start rather than
// silently never fire.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	if _, _, err := ParseHHMM(cfg.ReminderAt); err != nil {
		return cfg, fmt.Errorf("REMINDER_AT: %w", err)
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return cfg, fmt.Errorf("TIME_ZONE: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured deployment time zone. Load has already
// validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseHHMM parses a wall-clock time of day like "20:00".
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
