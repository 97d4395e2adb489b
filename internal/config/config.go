package config

import "github.com/phrazzld/scry-study/internal/domain/srs"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Session  SessionConfig  `mapstructure:"session"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat              string `mapstructure:"log_format" validate:"required,oneof=json text"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// The server uses URL (PostgreSQL); the command-line client uses SQLitePath.
type DatabaseConfig struct {
	URL        string `mapstructure:"url" validate:"omitempty,url"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=44640"`
}

// SRSConfig holds the scheduling parameters.
type SRSConfig struct {
	MinEase        float64 `mapstructure:"min_ease" validate:"gt=0"`
	MaxEaseNominal float64 `mapstructure:"max_ease_nominal" validate:"gtfield=MinEase"`
	DefaultEase    float64 `mapstructure:"default_ease" validate:"gtefield=MinEase"`
	EasyBonus      float64 `mapstructure:"easy_bonus" validate:"gt=0"`
	AgainInterval  float64 `mapstructure:"again_interval" validate:"gt=0"`
	HardInterval   float64 `mapstructure:"hard_interval" validate:"gt=0"`
	MediumInterval float64 `mapstructure:"medium_interval" validate:"gt=0"`
	EasyInterval   float64 `mapstructure:"easy_interval" validate:"gt=0"`
}

// ParamsConfig converts the settings into srs overrides.
func (c SRSConfig) ParamsConfig() srs.ParamsConfig {
	return srs.ParamsConfig{
		MinEase:        c.MinEase,
		MaxEaseNominal: c.MaxEaseNominal,
		DefaultEase:    c.DefaultEase,
		EasyBonus:      c.EasyBonus,
		AgainInterval:  c.AgainInterval,
		HardInterval:   c.HardInterval,
		MediumInterval: c.MediumInterval,
		EasyInterval:   c.EasyInterval,
	}
}

// SessionConfig controls study sessions.
type SessionConfig struct {
	MaxCards           int `mapstructure:"max_cards" validate:"gte=0"`            // 0 means no limit
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes" validate:"gte=0"` // 0 disables eviction
}

// ReminderConfig controls the due-card reminder job.
type ReminderConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes" validate:"gt=0"`
}
