package quill

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "QUILL_"

// SiteConfig holds all configuration for a quill site.
type SiteConfig struct {
	Name        string `yaml:"name" env:"SITE_NAME"`               // Site name (default "Blog")
	URL         string `yaml:"url" env:"SITE_URL"`                 // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description" env:"SITE_DESCRIPTION"` // Used by the RSS channel

	Addr         string `yaml:"addr" env:"ADDR"`                   // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"` // SQLite path (default "data/blog.db")

	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"` // Required: session cookie key
	CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`   // Set true for HTTPS
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET"`         // Enables bearer tokens when set

	LoginAttempts int           `yaml:"login_attempts" env:"LOGIN_ATTEMPTS"` // Failed logins per window (default 5)
	LoginWindow   time.Duration `yaml:"login_window" env:"LOGIN_WINDOW"`     // default 1m

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`   // zerolog level (default "info")
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"` // "json" or "console" (default "json")

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"` // default 5s
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.LoginAttempts == 0 {
		c.LoginAttempts = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate reports missing required settings.
func (c SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("quill: SessionSecret is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("quill: unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoadConfig builds a SiteConfig from the optional YAML file at path, then
// QUILL_-prefixed environment variables, then defaults. ${VAR} references in
// the file are expanded from the environment.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return SiteConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
