package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Stream   StreamConfig   `mapstructure:"stream"`
	Gamma    GammaConfig    `mapstructure:"gamma"`
	Detector DetectorConfig `mapstructure:"detector"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StreamConfig holds the CLOB WebSocket connection configuration
type StreamConfig struct {
	WSURL             string        `mapstructure:"ws_url"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongTimeout       time.Duration `mapstructure:"pong_timeout"`
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay"`
}

// GammaConfig holds the Gamma REST API configuration used for
// resolving slugs and search terms to CLOB token IDs
type GammaConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// DetectorConfig holds the volatility detector thresholds
type DetectorConfig struct {
	Window           time.Duration `mapstructure:"window"`
	PriceThreshold   float64       `mapstructure:"price_threshold"`
	VolumeMultiplier float64       `mapstructure:"volume_multiplier"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"` // Empty means stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. CLOBWATCH_TELEGRAM_BOT_TOKEN
	v.SetEnvPrefix("CLOBWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Stream defaults match the public CLOB market channel
	v.SetDefault("stream.ws_url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	v.SetDefault("stream.ping_interval", "20s")
	v.SetDefault("stream.pong_timeout", "20s")
	v.SetDefault("stream.reconnect_min_delay", "1s")
	v.SetDefault("stream.reconnect_max_delay", "60s")

	// Gamma defaults
	v.SetDefault("gamma.api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "10s")
	v.SetDefault("gamma.max_retries", 3)
	v.SetDefault("gamma.retry_delay_base", "1s")

	// Detector defaults
	v.SetDefault("detector.window", "5s")
	v.SetDefault("detector.price_threshold", 0.02)
	v.SetDefault("detector.volume_multiplier", 3.0)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 7)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Stream config
	if c.Stream.WSURL == "" {
		return fmt.Errorf("stream.ws_url is required")
	}
	if c.Stream.PingInterval <= 0 {
		return fmt.Errorf("stream.ping_interval must be positive")
	}
	if c.Stream.PongTimeout <= 0 {
		return fmt.Errorf("stream.pong_timeout must be positive")
	}
	if c.Stream.ReconnectMinDelay <= 0 {
		return fmt.Errorf("stream.reconnect_min_delay must be positive")
	}
	if c.Stream.ReconnectMaxDelay < c.Stream.ReconnectMinDelay {
		return fmt.Errorf("stream.reconnect_max_delay must be >= stream.reconnect_min_delay")
	}

	// Validate Gamma config
	if c.Gamma.APIURL == "" {
		return fmt.Errorf("gamma.api_url is required")
	}
	if c.Gamma.Timeout <= 0 {
		return fmt.Errorf("gamma.timeout must be positive")
	}

	// Validate Detector config
	if c.Detector.Window <= 0 {
		return fmt.Errorf("detector.window must be positive")
	}
	if c.Detector.PriceThreshold <= 0 || c.Detector.PriceThreshold > 1.0 {
		return fmt.Errorf("detector.price_threshold must be in (0, 1]")
	}
	if c.Detector.VolumeMultiplier <= 1.0 {
		return fmt.Errorf("detector.volume_multiplier must be greater than 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("logging.max_size_mb must be at least 1 when a log file is set")
	}

	return nil
}
