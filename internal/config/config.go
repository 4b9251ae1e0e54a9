package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Retention RetentionConfig `yaml:"retention"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// BrowserConfig configures the external browser launcher. The profile
// is shared with the scraping agent so a manual login persists for it.
type BrowserConfig struct {
	Command string `yaml:"command"`
	Profile string `yaml:"profile"`
}

// RetentionConfig controls lead archival and activity-log pruning.
type RetentionConfig struct {
	Days int `yaml:"days"`
}

// SessionConfig configures session health checking.
type SessionConfig struct {
	CheckInterval string `yaml:"check_interval"`
}

// ParseCheckInterval returns the session check interval as time.Duration.
func (s SessionConfig) ParseCheckInterval() time.Duration {
	d, err := time.ParseDuration(s.CheckInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Database:  DatabaseConfig{Path: filepath.Join(home, ".openclaw", "channel-manager", "sessions.db")},
		Server:    ServerConfig{Port: 8390},
		Browser:   BrowserConfig{Command: "openclaw", Profile: "openclaw"},
		Retention: RetentionConfig{Days: 30},
		Session:   SessionConfig{CheckInterval: "15m"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHANNELMGR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CHANNELMGR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CHANNELMGR_BROWSER_PROFILE"); v != "" {
		cfg.Browser.Profile = v
	}
	if v := os.Getenv("CHANNELMGR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
