package config

import (
	"fmt"
	"net/url"
	"time"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the top-level bookctl configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SessionConfig selects where the token and user record persist between runs.
type SessionConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "file", "sqlite" or "memory"
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

// CacheConfig holds the cover image cache location.
type CacheConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// EffectiveSessionPath returns the configured session path or the
// backend-specific default.
func (s *SessionConfig) EffectiveSessionPath() string {
	if s.Path != "" {
		return s.Path
	}
	if s.Backend == BackendSQLite {
		return defaultDataPath("session.db")
	}
	return defaultDataPath("session.yml")
}

// EffectiveTimeout returns the request timeout, falling back to 30s.
func (a *APIConfig) EffectiveTimeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeout
}

// Validate checks values that would otherwise fail late and confusingly.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q (want file, sqlite or memory)", c.Session.Backend)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an http(s) URL", c.API.BaseURL)
	}
	return nil
}
