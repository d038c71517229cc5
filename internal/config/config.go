package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Alfex4936/ltpanel/internal/store"
)

// Config is the YAML configuration shared by the CLI and the server.
type Config struct {
	ServerURL   string       `yaml:"server_url"` // default for apiServerUrl until the user stores one
	Language    string       `yaml:"language"`   // "auto" lets the service detect it
	UserAgent   string       `yaml:"user_agent"`
	TimeoutSecs int          `yaml:"timeout_secs"`
	Checker     Checker      `yaml:"checker"`
	Store       store.Config `yaml:"store"`
	Diagnostics bool         `yaml:"diagnostics"` // report failures to <server>/log
	MaxLength   int          `yaml:"max_length"`  // UTF-16 units a host hands over, 0 = unlimited
	LogLevel    string       `yaml:"log_level"`

	// URL patterns whose pages the host cannot read or write safely
	UnsupportedSites []string `yaml:"unsupported_sites"`
	// URL patterns where replacements are shown but cannot be applied
	UnsupportedReplacementSites []string `yaml:"unsupported_replacement_sites"`
}

// Checker selects the checking backend.
type Checker struct {
	Backend string `yaml:"backend"`  // remote | hunspell
	DictDir string `yaml:"dict_dir"` // hunspell
	Lang    string `yaml:"lang"`     // hunspell dictionary name
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:   store.DefaultServerURL,
		Language:    "auto",
		UserAgent:   "ltpanel",
		TimeoutSecs: 60,
		Checker:     Checker{Backend: "remote", Lang: "en_US"},
		Store:       store.Config{Driver: "file"},
		Diagnostics: true,
		MaxLength:   20000,
		LogLevel:    "info",
		UnsupportedSites: []string{
			`^https?://(docs\.google\.com|chrome\.google\.com|addons\.mozilla\.org).*`,
		},
		UnsupportedReplacementSites: []string{
			`^https?://(www\.)?(facebook|medium)\.com.*`,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// REDIS_PASSWORD overrides the stored password.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Store.RedisPassword = pw
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if !ValidServerURL(c.ServerURL) {
		return fmt.Errorf("server_url must start with http:// or https://, got %q", c.ServerURL)
	}
	if c.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout_secs must be positive")
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("max_length must not be negative")
	}
	switch c.Checker.Backend {
	case "remote", "hunspell":
	default:
		return fmt.Errorf("checker.backend must be remote or hunspell, got %q", c.Checker.Backend)
	}
	switch c.Store.Driver {
	case "file", "sqlite", "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be file, sqlite, redis or memory, got %q", c.Store.Driver)
	}
	if _, err := compile(c.UnsupportedSites); err != nil {
		return fmt.Errorf("unsupported_sites: %w", err)
	}
	if _, err := compile(c.UnsupportedReplacementSites); err != nil {
		return fmt.Errorf("unsupported_replacement_sites: %w", err)
	}
	return nil
}

// Timeout is the hard limit for one call to the checking service.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SitePatterns returns the compiled UnsupportedSites.
func (c *Config) SitePatterns() []*regexp.Regexp {
	res, _ := compile(c.UnsupportedSites)
	return res
}

// ReplacementSitePatterns returns the compiled UnsupportedReplacementSites.
func (c *Config) ReplacementSitePatterns() []*regexp.Regexp {
	res, _ := compile(c.UnsupportedReplacementSites)
	return res
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidServerURL applies the options-page rule: http:// or https:// only.
func ValidServerURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
