// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and WIKIA_* environment variables, and hot-reloads it
// when the file changes.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/olgasafonova/wikia-mcp-server/wikia"
)

// Config is the process-level configuration.
type Config struct {
	Language         string        `mapstructure:"language" yaml:"language"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	RateLimit        bool          `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateLimitMinWait time.Duration `mapstructure:"rate_limit_min_wait" yaml:"rate_limit_min_wait"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	MaxConcurrent    int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	APIURL           string        `mapstructure:"api_url" yaml:"api_url"`
	QueryURL         string        `mapstructure:"query_url" yaml:"query_url"`
	PageURL          string        `mapstructure:"page_url" yaml:"page_url"`

	// SessionPages bounds how many resolved pages the MCP tools keep.
	SessionPages int    `mapstructure:"session_pages" yaml:"session_pages"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig mirrors wikia.DefaultConfig plus the server settings.
func DefaultConfig() Config {
	d := wikia.DefaultConfig()
	return Config{
		Language:         d.Language,
		UserAgent:        d.UserAgent,
		RateLimit:        d.RateLimit,
		RateLimitMinWait: d.RateLimitMinWait,
		Timeout:          d.Timeout,
		MaxRedirects:     d.MaxRedirects,
		MaxConcurrent:    d.MaxConcurrentRequests,
		APIURL:           d.APIURL,
		QueryURL:         d.QueryURL,
		PageURL:          d.PageURL,
		SessionPages:     wikia.DefaultSessionPages,
		LogLevel:         "info",
	}
}

// ClientConfig converts c into the client library's configuration.
func (c *Config) ClientConfig() wikia.Config {
	return wikia.Config{
		Language:              c.Language,
		UserAgent:             c.UserAgent,
		RateLimit:             c.RateLimit,
		RateLimitMinWait:      c.RateLimitMinWait,
		Timeout:               c.Timeout,
		MaxRedirects:          c.MaxRedirects,
		APIURL:                c.APIURL,
		QueryURL:              c.QueryURL,
		PageURL:               c.PageURL,
		MaxConcurrentRequests: c.MaxConcurrent,
	}
}

// Apply pushes the runtime-adjustable settings onto a live client:
// language, user_agent, rate_limit, rate_limit_min_wait, max_redirects and
// the URL templates. The language is only switched when it differs, since
// switching clears every memoized result.
//
// timeout and max_concurrent size the HTTP transport, and session_pages and
// log_level are read once at startup; changing them needs a restart.
func (c *Config) Apply(client *wikia.Client) error {
	current := client.Config()
	if strings.ToLower(strings.TrimSpace(c.Language)) != current.Language {
		client.SetLanguage(c.Language)
	}
	if c.UserAgent != "" && c.UserAgent != current.UserAgent {
		client.SetUserAgent(c.UserAgent)
	}
	if c.RateLimit != current.RateLimit || (c.RateLimit && c.RateLimitMinWait != current.RateLimitMinWait) {
		client.SetRateLimiting(c.RateLimit, c.RateLimitMinWait)
	}
	if c.MaxRedirects != current.MaxRedirects {
		client.SetMaxRedirects(c.MaxRedirects)
	}
	if err := client.SetURLTemplates(c.APIURL, c.QueryURL, c.PageURL); err != nil {
		return fmt.Errorf("applying URL templates: %w", err)
	}
	return nil
}

// RestartRequired lists the settings that differ from prev but cannot be
// applied to a running client.
func (c *Config) RestartRequired(prev *Config) []string {
	var keys []string
	if c.Timeout != prev.Timeout {
		keys = append(keys, "timeout")
	}
	if c.MaxConcurrent != prev.MaxConcurrent {
		keys = append(keys, "max_concurrent")
	}
	if c.SessionPages != prev.SessionPages {
		keys = append(keys, "session_pages")
	}
	if c.LogLevel != prev.LogLevel {
		keys = append(keys, "log_level")
	}
	return keys
}

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config. An
// empty cfgFile searches ./wikia.yaml and ~/.wikia/wikia.yaml; a missing
// file is not an error.
func NewManager(cfgFile string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	// A .env file is optional.
	_ = godotenv.Load()

	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    logger,
	}
	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm, nil
}

func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	v := cm.v
	v.SetDefault("language", defaults.Language)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("rate_limit", defaults.RateLimit)
	v.SetDefault("rate_limit_min_wait", defaults.RateLimitMinWait)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("max_redirects", defaults.MaxRedirects)
	v.SetDefault("max_concurrent", defaults.MaxConcurrent)
	v.SetDefault("api_url", defaults.APIURL)
	v.SetDefault("query_url", defaults.QueryURL)
	v.SetDefault("page_url", defaults.PageURL)
	v.SetDefault("session_pages", defaults.SessionPages)
	v.SetDefault("log_level", defaults.LogLevel)

	// Environment variables with WIKIA_ prefix
	v.SetEnvPrefix("WIKIA")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("wikia")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.wikia")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// load parses the current viper state into a Config and validates it.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.ClientConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when none was found.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file. Invalid edits are
// logged and ignored; the previous configuration stays in effect.
func (cm *Manager) WatchConfig() {
	if cm.File() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.logger.Warn("Ignoring invalid config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("Config reloaded", "file", e.Name, "op", e.Op.String())
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}
