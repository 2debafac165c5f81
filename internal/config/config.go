// Package config loads runtime settings from defaults, an optional config.yaml
// and BILLIONS_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. BILLIONS_ADDR.
const EnvPrefix = "BILLIONS"

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	// Server
	Addr               string        `mapstructure:"addr"`
	DBPath             string        `mapstructure:"db_path"`
	CSRFKey            string        `mapstructure:"csrf_key"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
	SlowRequest        time.Duration `mapstructure:"slow_request"`
	SlowQuery          time.Duration `mapstructure:"slow_query"`
	PublicURL          string        `mapstructure:"public_url"`

	// Email
	ResendKey      string        `mapstructure:"resend_key"`
	EmailFrom      string        `mapstructure:"email_from"`
	OutboxInterval time.Duration `mapstructure:"outbox_interval"`

	// First-run admin account
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`

	// CLI client
	APIBaseURL   string        `mapstructure:"api_base_url"`
	APIToken     string        `mapstructure:"api_token"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ConfirmDelay time.Duration `mapstructure:"confirm_delay"`
}

var defaults = map[string]any{
	"env":                   "development",
	"log_level":             "info",
	"addr":                  ":8080",
	"db_path":               "billions.db",
	"csrf_key":              "",
	"allowed_origins":       []string{},
	"rate_limit_per_second": 10.0,
	"rate_limit_burst":      20,
	"slow_request":          200 * time.Millisecond,
	"slow_query":            50 * time.Millisecond,
	"public_url":            "",
	"resend_key":            "",
	"email_from":            "Billions Gym <schedule@billions.vn>",
	"outbox_interval":       time.Minute,
	"admin_email":           "",
	"admin_password":        "",
	"api_base_url":          "http://localhost:8080",
	"api_token":             "",
	"poll_interval":         30 * time.Second,
	"confirm_delay":         1500 * time.Millisecond,
}

// Load reads configuration. When file is empty, config.yaml is looked up in
// the working directory and ./config; a missing file is not an error.
func Load(file string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("config_event", "event", "no_config_file", "using", "environment and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitOrigins accepts both list values and a single comma-separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// Validate checks values that have no usable fallback.
func (c Config) Validate() error {
	if c.RateLimitPerSecond <= 0 {
		return errors.New("rate_limit_per_second must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	// The editor has no "no delay" mode; zero would silently mean its default.
	if c.ConfirmDelay <= 0 {
		return errors.New("confirm_delay must be positive")
	}
	if c.OutboxInterval <= 0 {
		return errors.New("outbox_interval must be positive")
	}
	if c.IsProduction() && c.CSRFKey == "" {
		return errors.New("csrf_key is required in production")
	}
	return nil
}

// IsProduction reports whether Env is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
