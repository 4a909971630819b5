package app

import "github.com/inkgen/server/internal/shared/config"

// Config is the application configuration.
type Config = config.Config

// LoadConfig loads configuration from file and environment.
func LoadConfig() (*Config, error) {
	return config.Load()
}
