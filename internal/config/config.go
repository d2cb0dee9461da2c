// Package config содержит логику чтения конфигурации сервиса sleepnexus.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса sleepnexus.
type Config struct {
	RunAddress          string `env:"RUN_ADDRESS"`
	DatabaseURI         string `env:"DATABASE_URI"`
	StateFile           string `env:"STATE_FILE"`
	PointsSystemAddress string `env:"POINTS_SYSTEM_ADDRESS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envStateFile := cfg.StateFile
	envPointsAddress := cfg.PointsSystemAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the state blob store")
	flag.StringVar(&cfg.StateFile, "f", "sleepnexus_state.json", "path to the state file when no database is configured")
	flag.StringVar(&cfg.PointsSystemAddress, "r", "", "points calculation system address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envStateFile != "" {
		cfg.StateFile = envStateFile
	}
	if envPointsAddress != "" {
		cfg.PointsSystemAddress = envPointsAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "sleepnexus_state.json"
	}

	return cfg, nil
}
