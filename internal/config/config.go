// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultDatabaseURL      = "sqlite://data/spennies.db"
	DefaultAPIBaseURL       = "http://localhost:8000"
	DefaultAPITimeout       = 30 * time.Second
	DefaultFirebaseAuthURL  = "https://identitytoolkit.googleapis.com/v1"
	DefaultFirebaseTokenURL = "https://securetoken.googleapis.com/v1/token"
	DefaultReminderHour     = 9
	DefaultReminderTimezone = "Asia/Kolkata"
	DefaultCurrencySymbol   = "₹"
	DefaultOTelExporter     = "none"
)

// OTelExporters lists the accepted OTEL_EXPORTER values.
var OTelExporters = []string{"none", "stdout", "otlp-http", "otlp-grpc"}

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string

	APIBaseURL string
	APITimeout time.Duration

	FirebaseAPIKey   string
	FirebaseAuthURL  string
	FirebaseTokenURL string

	GeminiAPIKey string

	LogLevel  string
	LogFormat string

	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string

	LoanReminderEnabled bool
	ReminderHour        int
	ReminderTimezone    string

	CurrencySymbol string
	OTelExporter   string

	// parse problems found while reading the environment, reported by validate
	problems []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      envOr("DATABASE_URL", DefaultDatabaseURL),
		APIBaseURL:       strings.TrimRight(envOr("SPENNIES_API_URL", DefaultAPIBaseURL), "/"),
		APITimeout:       DefaultAPITimeout,
		FirebaseAPIKey:   os.Getenv("FIREBASE_API_KEY"),
		FirebaseAuthURL:  strings.TrimRight(envOr("FIREBASE_AUTH_URL", DefaultFirebaseAuthURL), "/"),
		FirebaseTokenURL: envOr("FIREBASE_TOKEN_URL", DefaultFirebaseTokenURL),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		CurrencySymbol:   envOr("CURRENCY_SYMBOL", DefaultCurrencySymbol),
		OTelExporter:     strings.ToLower(envOr("OTEL_EXPORTER", DefaultOTelExporter)),
	}

	if raw := os.Getenv("SPENNIES_API_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			cfg.problems = append(cfg.problems, fmt.Sprintf("SPENNIES_API_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.APITimeout = d
		}
	}

	cfg.LoanReminderEnabled = os.Getenv("LOAN_REMINDER_ENABLED") == "true"
	cfg.ReminderHour = DefaultReminderHour
	if hourStr := os.Getenv("REMINDER_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.ReminderHour = h
		}
	}
	cfg.ReminderTimezone = DefaultReminderTimezone
	if tz := os.Getenv("REMINDER_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.ReminderTimezone = tz
		}
	}

	for idStr := range strings.SplitSeq(os.Getenv("WHITELISTED_USER_IDS"), ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
	}

	for username := range strings.SplitSeq(os.Getenv("WHITELISTED_USERNAMES"), ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// validate checks that all required configuration is present and well formed.
func (c *Config) validate() error {
	errs := slices.Clone(c.problems)

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if err := checkHTTPURL(c.APIBaseURL); err != nil {
		errs = append(errs, "SPENNIES_API_URL "+err.Error())
	}

	if c.FirebaseAPIKey != "" {
		if err := checkHTTPURL(c.FirebaseAuthURL); err != nil {
			errs = append(errs, "FIREBASE_AUTH_URL "+err.Error())
		}
		if err := checkHTTPURL(c.FirebaseTokenURL); err != nil {
			errs = append(errs, "FIREBASE_TOKEN_URL "+err.Error())
		}
	}

	if !slices.Contains(OTelExporters, c.OTelExporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of %s", strings.Join(OTelExporters, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host, got %q", raw)
	}
	return nil
}

// AuthEnabled reports whether an identity provider is configured.
func (c *Config) AuthEnabled() bool {
	return c.FirebaseAPIKey != ""
}

// ReminderLocation returns the configured reminder timezone.
func (c *Config) ReminderLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsUserWhitelisted checks if a Telegram user ID or username may use the bot.
// An empty whitelist admits everyone.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		return true
	}

	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
