package config

import (
	"errors"
	"os"
)

// ErrMissingDatabaseURL is returned when no database DSN is configured.
var ErrMissingDatabaseURL = errors.New("database_url is required (set DATABASE_URL or use a config file)")

// Config holds application configuration (DB, Redis, server, and sync settings).
type Config struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort  string `yaml:"server_port" env:"SERVER_PORT"`
	MetadataDir string `yaml:"metadata_dir" env:"METADATA_DIR"`
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the current directory.
// DATABASE_URL is required; the rest are optional.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		MetadataDir: os.Getenv("METADATA_DIR"),
	}
	applyDefaults(c)
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.MetadataDir == "" {
		c.MetadataDir = "metadata"
	}
}
