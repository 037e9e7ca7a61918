// CLAUDE:SUMMARY Service configuration: YAML file with env-var overrides and validation.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full plume service configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	AuditDB  string `yaml:"audit_db"`
	LogLevel string `yaml:"log_level"`
	ReadOnly bool   `yaml:"read_only"`

	Sessions SessionConfig  `yaml:"sessions"`
	Platform PlatformConfig `yaml:"platform"`

	// Roles maps tool name to the roles allowed to call it. Tools absent
	// from the map are open to every caller.
	Roles map[string][]string `yaml:"roles"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	Max        int           `yaml:"max"`
	MaxIdle    time.Duration `yaml:"max_idle"`
	SweepEvery time.Duration `yaml:"sweep_every"`
}

// PlatformConfig points at the external content platform.
type PlatformConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8086",
		AuditDB:  "db/plume_audit.db",
		LogLevel: "info",
		Sessions: SessionConfig{
			Max:        64,
			MaxIdle:    30 * time.Minute,
			SweepEvery: time.Minute,
		},
	}
}

// LoadConfig reads a YAML config file merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.AuditDB == "" {
		return fmt.Errorf("audit_db is required")
	}
	if c.Sessions.Max <= 0 {
		return fmt.Errorf("sessions.max must be > 0")
	}
	if c.Platform.BaseURL == "" && c.Platform.Token != "" {
		return fmt.Errorf("platform.base_url is required when a token is set")
	}
	return nil
}

// applyEnv lets the environment override file values, for container
// deployments where a config file is inconvenient.
func (c *Config) applyEnv() {
	if v := os.Getenv("PLUME_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("PLUME_AUDIT_DB"); v != "" {
		c.AuditDB = v
	}
	if v := os.Getenv("PLUME_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PLUME_PLATFORM_URL"); v != "" {
		c.Platform.BaseURL = v
	}
	if v := os.Getenv("PLUME_PLATFORM_TOKEN"); v != "" {
		c.Platform.Token = v
	}
	if os.Getenv("PLUME_READ_ONLY") == "1" {
		c.ReadOnly = true
	}
}
