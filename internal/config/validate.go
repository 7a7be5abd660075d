package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
)

// Validate checks the structural validity of a Config. Call Defaults first;
// validation assumes zero values have been filled.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.AppID <= 0 {
		errs = append(errs, errors.New("config: telegram.api_id is required"))
	}
	if c.Telegram.AppHash == "" {
		errs = append(errs, errors.New("config: telegram.api_hash is required"))
	}

	if _, err := net.ResolveTCPAddr("tcp", c.Server.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid server.bind %q: %w", c.Server.Bind, err))
	}
	if c.Server.PollMaxTimeout >= c.Server.WriteTimeout {
		errs = append(errs, errors.New("config: server.poll_max_timeout must be below server.write_timeout"))
	}

	if c.Webhook.Workers < 1 {
		errs = append(errs, errors.New("config: webhook.workers must be at least 1"))
	}
	if c.Webhook.Timeout <= 0 {
		errs = append(errs, errors.New("config: webhook.timeout must be positive"))
	}
	if c.Webhook.QueueCapacity < 1 {
		errs = append(errs, errors.New("config: webhook.queue_capacity must be at least 1"))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("config: unknown log.level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("config: unknown log.format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
