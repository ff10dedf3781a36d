// Package config loads the process configuration: a YAML file first,
// environment variables on top, then validation with defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"finbot/internal/database"
	"finbot/internal/logger"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// TelegramConfig holds the bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// ServiceConfig points at one collaborator HTTP service.
type ServiceConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ServicesConfig lists the collaborator services the bot calls.
type ServicesConfig struct {
	Backend ServiceConfig `yaml:"backend"`
	Rates   ServiceConfig `yaml:"rates"`
}

// SessionConfig tunes the in-memory dialog session store.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// ServerConfig holds the listen addresses of the collaborator binaries.
type ServerConfig struct {
	BackendListen string `yaml:"backend_listen" envconfig:"BACKEND_LISTEN"`
	RatesListen   string `yaml:"rates_listen" envconfig:"RATES_LISTEN"`
	// AdminChatIDs lists the chats the backend treats as admins.
	AdminChatIDs []int64 `yaml:"admin_chat_ids" envconfig:"ADMIN_CHAT_IDS"`
}

// Config aggregates everything the three binaries need. Each binary
// reads only its slice.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Services ServicesConfig  `yaml:"services"`
	Session  SessionConfig   `yaml:"session"`
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	Logging  logger.Settings `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 30 * time.Minute
	}
	if cfg.Session.SweepInterval <= 0 {
		cfg.Session.SweepInterval = time.Minute
	}
	if cfg.Services.Backend.RequestTimeout <= 0 {
		cfg.Services.Backend.RequestTimeout = 5 * time.Second
	}
	if cfg.Services.Rates.RequestTimeout <= 0 {
		cfg.Services.Rates.RequestTimeout = 5 * time.Second
	}
	if cfg.Server.BackendListen == "" {
		cfg.Server.BackendListen = ":8080"
	}
	if cfg.Server.RatesListen == "" {
		cfg.Server.RatesListen = ":8081"
	}
	return nil
}

// ValidateBot checks the fields only the bot binary needs. The service
// binaries share the file without a token.
func (c *Config) ValidateBot() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(c.Services.Backend.URL) == "" {
		return fmt.Errorf("services.backend.url is required")
	}
	if strings.TrimSpace(c.Services.Rates.URL) == "" {
		return fmt.Errorf("services.rates.url is required")
	}
	return nil
}
