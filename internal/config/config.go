package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config holds optional defaults loaded from ~/.config/deployment-cleaner/config.yaml.
type Config struct {
	DefaultProfile  string `yaml:"default_profile"`
	DefaultRegion   string `yaml:"default_region"`
	EndpointURL     string `yaml:"endpoint_url"`
	Backend         string `yaml:"backend"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	LogLevel        string `yaml:"log_level"`
}

// DefaultPath returns the location Load reads from.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "deployment-cleaner", "config.yaml"), nil
}

// Load reads the config file at its default location. Returns zero-value
// Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. Returns zero-value Config if the
// file doesn't exist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// Endpoint returns the endpoint flag if set, otherwise the configured one.
func (c *Config) Endpoint(flag string) string {
	if flag != "" {
		return flag
	}
	return c.EndpointURL
}

// StorageBackend resolves the backend name, defaulting to s3.
func (c *Config) StorageBackend(flag string) (string, error) {
	b := c.Backend
	if flag != "" {
		b = flag
	}
	switch b {
	case "", BackendS3:
		return BackendS3, nil
	case BackendMinIO:
		return BackendMinIO, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q (want %q or %q)", b, BackendS3, BackendMinIO)
	}
}

// Level resolves the log level: flag, then config file, then LOG_LEVEL.
// An empty result means the logger's default.
func (c *Config) Level(flag string) string {
	if flag != "" {
		return flag
	}
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return os.Getenv("LOG_LEVEL")
}
