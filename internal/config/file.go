package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	ServerPort  string `yaml:"server_port"`
	MetadataDir string `yaml:"metadata_dir"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL: f.DatabaseURL,
		RedisURL:    f.RedisURL,
		ServerPort:  f.ServerPort,
		MetadataDir: f.MetadataDir,
	}
	applyDefaults(c)
	return c, nil
}
