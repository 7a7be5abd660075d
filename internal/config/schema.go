// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Telegram holds the MTProto application credentials.
	Telegram TelegramConfig `yaml:"telegram"`

	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Webhook tunes the per-session push-delivery pool.
	Webhook WebhookConfig `yaml:"webhook"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`

	// DataDir is where per-token session files are stored.
	DataDir string `yaml:"data_dir"`
}

// TelegramConfig identifies the application to the Telegram datacenters.
// Credentials come from https://my.telegram.org.
type TelegramConfig struct {
	AppID   int    `yaml:"api_id"`
	AppHash string `yaml:"api_hash"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// PollMaxTimeout caps the getUpdates long-poll wait.
	PollMaxTimeout time.Duration `yaml:"poll_max_timeout"`
}

type WebhookConfig struct {
	// Workers is the delivery pool size per session.
	Workers int `yaml:"workers"`

	// Timeout bounds each delivery POST.
	Timeout time.Duration `yaml:"timeout"`

	// QueueCapacity bounds the per-session delivery queue; overflow falls
	// back to the poll buffer.
	QueueCapacity int `yaml:"queue_capacity"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Defaults fills every zero-valued field with its production default.
func (c *Config) Defaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1:8081"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.PollMaxTimeout == 0 {
		c.Server.PollMaxTimeout = 50 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = c.Server.PollMaxTimeout + 10*time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Webhook.Workers == 0 {
		c.Webhook.Workers = 3
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 3 * time.Second
	}
	if c.Webhook.QueueCapacity == 0 {
		c.Webhook.QueueCapacity = 1024
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
}
