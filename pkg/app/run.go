// Package app provides the shared entry point for the grambridge binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/grambridge/grambridge/internal/bridge"
	"github.com/grambridge/grambridge/internal/config"
	"github.com/grambridge/grambridge/internal/httpapi"
	"github.com/grambridge/grambridge/internal/mtproto"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, wires the session registry behind the HTTP
// facade, and blocks until a shutdown signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	logger.Info("starting", "version", params.Version, "config", cfgPath)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("app: creating data dir: %w", err)
	}

	factory := mtproto.NewGotdFactory(mtproto.GotdConfig{
		AppID:      cfg.Telegram.AppID,
		AppHash:    cfg.Telegram.AppHash,
		SessionDir: cfg.DataDir,
		Logger:     logger,
	})

	// The session gauge reads registry.Len lazily, so metrics can be built
	// first and handed to the registry for delivery counting.
	var registry *bridge.Registry
	metrics := httpapi.NewMetrics(prometheus.DefaultRegisterer, func() int {
		if registry == nil {
			return 0
		}
		return registry.Len()
	})

	registry = bridge.NewRegistry(bridge.RegistryConfig{
		Factory:        factory,
		Workers:        cfg.Webhook.Workers,
		QueueCapacity:  cfg.Webhook.QueueCapacity,
		WebhookTimeout: cfg.Webhook.Timeout,
		Logger:         logger,
		Metrics:        metrics,
	})

	server := httpapi.NewServer(httpapi.Config{
		Bind:            cfg.Server.Bind,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		PollMaxTimeout:  cfg.Server.PollMaxTimeout,
	}, registry, metrics, logger)

	if err := server.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	registry.Close()
	logger.Info("shutdown complete")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/grambridge/grambridge.yaml →
// ~/.config/grambridge/grambridge.yaml → ./grambridge.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "grambridge", "grambridge.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "grambridge", "grambridge.yaml"))
	}

	candidates = append(candidates, "grambridge.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
