package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/task-api/internal/config"
)

// loadAppConfig loads the application configuration from environment
// variables and an optional config.yaml in dir.
func loadAppConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadWithPaths(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)

	if cfg.RateLimit.RedisURL != "" {
		slog.Debug("Rate limit configuration", "redis_url_present", true)
	}

	return cfg, nil
}
