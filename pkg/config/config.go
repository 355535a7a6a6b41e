// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddress string `env:"MUSTER_LISTEN_ADDR" envDefault:":8080"`

	// GridID is a spreadsheet id or a path to a local .xlsx workbook. A grid
	// id saved in the settings file takes precedence.
	GridID       string `env:"MUSTER_GRID_ID"`
	SheetName    string `env:"MUSTER_SHEET_NAME"`
	SettingsFile string `env:"MUSTER_SETTINGS_FILE" envDefault:"muster.toml"`

	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	Timezone          string        `env:"MUSTER_TIMEZONE" envDefault:"Local"`
	RequestsPerMinute int           `env:"MUSTER_REQUESTS_PER_MINUTE" envDefault:"60"`
	RequestTimeout    time.Duration `env:"MUSTER_REQUEST_TIMEOUT" envDefault:"15s"`

	OTelEndpoint string `env:"MUSTER_OTEL_ENDPOINT"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RequestsPerMinute < 0 {
		return Config{}, fmt.Errorf("MUSTER_REQUESTS_PER_MINUTE must not be negative, got %d", cfg.RequestsPerMinute)
	}
	return cfg, nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
