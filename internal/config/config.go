// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	ClientURL           string
	AppEnv              string
	DBPath              string
	LogLevel            string
	GRPCHealthAddr      string // empty disables the gRPC health server
	MaxRequestBodyBytes int64
	MaxChatMessages     int
	LLM                 LLMConfig
	RateLimit           RateLimitConfig
	ConversationLog     ConversationLogConfig
	Retention           RetentionConfig
}

// LLMConfig selects and tunes the upstream model provider.
type LLMConfig struct {
	Provider        string // "anthropic" or "openai"
	Model           string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	MaxTokens       int
	Timeout         time.Duration
}

// RateLimitConfig holds per-client request budgets.
type RateLimitConfig struct {
	ChatRequests    int
	ChatWindow      time.Duration
	ContactRequests int
	ContactWindow   time.Duration
}

// ConversationLogConfig controls asynchronous conversation persistence.
type ConversationLogConfig struct {
	Enabled   bool
	QueueSize int
}

// RetentionConfig controls pruning of old conversation turns. A zero MaxAge
// disables pruning.
type RetentionConfig struct {
	MaxAge   time.Duration
	Schedule string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "3001"),
		ClientURL:           getEnv("CLIENT_URL", "http://localhost:3000"),
		AppEnv:              strings.ToLower(getEnv("APP_ENV", "development")),
		DBPath:              getEnv("DATABASE_PATH", "./data/conversations.sqlite"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		GRPCHealthAddr:      getEnv("GRPC_HEALTH_ADDR", ""),
		MaxRequestBodyBytes: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 10<<20)),
		MaxChatMessages:     getEnvInt("MAX_CHAT_MESSAGES", 100),
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
			Model:           getEnv("LLM_MODEL", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			MaxTokens:       getEnvInt("LLM_MAX_TOKENS", 1024),
			Timeout:         getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			ChatRequests:    getEnvInt("CHAT_RATE_LIMIT", 50),
			ChatWindow:      getEnvDuration("CHAT_RATE_WINDOW", 15*time.Minute),
			ContactRequests: getEnvInt("CONTACT_RATE_LIMIT", 5),
			ContactWindow:   getEnvDuration("CONTACT_RATE_WINDOW", time.Hour),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			QueueSize: getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvDuration("CONVERSATION_RETENTION", 0),
			Schedule: getEnv("RETENTION_SCHEDULE", "@daily"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}
	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("LLM_PROVIDER must be \"anthropic\" or \"openai\", got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.RateLimit.ChatRequests <= 0 || c.RateLimit.ChatWindow <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_WINDOW must be > 0")
	}
	if c.RateLimit.ContactRequests <= 0 || c.RateLimit.ContactWindow <= 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT and CONTACT_RATE_WINDOW must be > 0")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.MaxChatMessages <= 0 {
		return fmt.Errorf("MAX_CHAT_MESSAGES must be > 0")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	if c.Retention.MaxAge < 0 {
		return fmt.Errorf("CONVERSATION_RETENTION cannot be negative")
	}
	if c.Retention.MaxAge > 0 {
		if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
			return fmt.Errorf("RETENTION_SCHEDULE %q: %w", c.Retention.Schedule, err)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	if c.LLM.Provider == "openai" {
		return c.LLM.OpenAIAPIKey
	}
	return c.LLM.AnthropicAPIKey
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("15m") or bare seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
