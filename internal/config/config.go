package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	Timezone       string `mapstructure:"TIMEZONE"`
	RolloverTime   string `mapstructure:"ROLLOVER_TIME"`
	MaxCatchUpDays int    `mapstructure:"MAX_CATCH_UP_DAYS"`

	LLMAPIKey         string  `mapstructure:"LLM_API_KEY"`
	LLMBaseURL        string  `mapstructure:"LLM_BASE_URL"`
	LLMModel          string  `mapstructure:"LLM_MODEL"`
	LLMTemperature    float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMMaxTokens      int     `mapstructure:"LLM_MAX_TOKENS"`
	LLMTimeoutSeconds int     `mapstructure:"LLM_TIMEOUT_SECONDS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AdminToken    string `mapstructure:"ADMIN_TOKEN"`
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DigestTime    string `mapstructure:"DIGEST_TIME"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogDir   string `mapstructure:"LOG_DIR"`

	location *time.Location
}

var defaults = map[string]any{
	"ENVIRONMENT":         "development",
	"SERVER_PORT":         "8080",
	"DATABASE_URL":        "daily_streak.db",
	"TIMEZONE":            "Local",
	"ROLLOVER_TIME":       "00:00",
	"MAX_CATCH_UP_DAYS":   7,
	"LLM_API_KEY":         "",
	"LLM_BASE_URL":        "https://api.groq.com/openai/v1",
	"LLM_MODEL":           "llama-3.1-8b-instant",
	"LLM_TEMPERATURE":     0.5,
	"LLM_MAX_TOKENS":      150,
	"LLM_TIMEOUT_SECONDS": 15,
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"ADMIN_TOKEN":         "",
	"TELEGRAM_TOKEN":      "",
	"DIGEST_TIME":         "07:00",
	"LOG_LEVEL":           "info",
	"LOG_DIR":             "",
}

// Load reads an optional .env file from path and then the environment.
// Environment variables win over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) trim() {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.RolloverTime = strings.TrimSpace(c.RolloverTime)
	c.DigestTime = strings.TrimSpace(c.DigestTime)
	c.LLMAPIKey = strings.TrimSpace(c.LLMAPIKey)
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.AdminToken = strings.TrimSpace(c.AdminToken)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	if _, _, err := ParseClock(c.RolloverTime); err != nil {
		return fmt.Errorf("ROLLOVER_TIME: %w", err)
	}
	if _, _, err := ParseClock(c.DigestTime); err != nil {
		return fmt.Errorf("DIGEST_TIME: %w", err)
	}
	if c.MaxCatchUpDays < 1 {
		return fmt.Errorf("MAX_CATCH_UP_DAYS must be at least 1")
	}
	if c.LLMTimeoutSeconds <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// Location is the zone in which calendar days are computed.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// ParseClock parses a wall-clock "HH:MM" string.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}
