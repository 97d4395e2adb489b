package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrServerSettingMissing is returned by RequireServer when a setting only the
// HTTP server needs is empty.
var ErrServerSettingMissing = errors.New("required server setting missing")

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.log_format":               "json",
	"server.shutdown_timeout_seconds": 10,

	"database.url":         "",
	"database.sqlite_path": "scry-study.db",

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,

	"srs.min_ease":         1.3,
	"srs.max_ease_nominal": 2.5,
	"srs.default_ease":     2.5,
	"srs.easy_bonus":       1.3,
	"srs.again_interval":   1.0,
	"srs.hard_interval":    1.2,
	"srs.medium_interval":  2.0,
	"srs.easy_interval":    3.0,

	"session.max_cards":            0,
	"session.idle_timeout_minutes": 30,

	"reminder.enabled":          false,
	"reminder.interval_minutes": 60,
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory or $HOME/.scry-study.
// Environment variables (SCRY_ prefix) take precedence over values from
// config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the default locations and tolerates a missing file; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.scry-study")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// RequireServer checks the settings the HTTP server cannot run without.
func (c *Config) RequireServer() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "SCRY_DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SCRY_AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrServerSettingMissing, strings.Join(missing, ", "))
	}
	return nil
}
