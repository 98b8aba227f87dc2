package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/places-api/internal/config"
)

// loadAppConfig loads configuration from defaults, config.yaml and the
// environment.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"geocode_cache", cfg.Cache.Enabled(),
		"image_storage", cfg.Storage.Enabled())

	return cfg, nil
}
