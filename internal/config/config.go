package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env"`            // current application environment (local, dev, prod etc)
	TelegramAPIToken string   `mapstructure:"-"`              // Telegram API token loaded from environment
	QuizDirectory    string   `mapstructure:"quiz_directory"` // root of the quiz bank directory tree
	AdminUserIDs     []int64  `mapstructure:"admin_user_ids"` // identities that bypass quota checks
	DB               DB       `mapstructure:"database"`       // database configuration section
	Dispatch         Dispatch `mapstructure:"dispatch"`       // outbound rate limiting section
	Quota            Quota    `mapstructure:"quota"`          // per-user attempt quota section
	Quiz             Quiz     `mapstructure:"quiz"`           // session engine tunables
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Dispatch caps outbound Telegram operations system-wide.
type Dispatch struct {
	OpsPerSecond int `mapstructure:"ops_per_second"` // hard ceiling shared by all sessions
	QueueSize    int `mapstructure:"queue_size"`     // bounded FIFO buffer for pending operations
}

// Quota bounds how often a single user may start quizzes.
type Quota struct {
	MaxAttemptsPerHour int           `mapstructure:"max_attempts_per_hour"` // rolling one-hour window
	BlockDuration      time.Duration `mapstructure:"block_duration"`        // forward block once the ceiling is hit
}

// Quiz contains session engine tunables.
type Quiz struct {
	TimerBase       time.Duration `mapstructure:"timer_base"`       // minimum per-question deadline
	TimerMax        time.Duration `mapstructure:"timer_max"`        // maximum per-question deadline
	InactivityGrace time.Duration `mapstructure:"inactivity_grace"` // no-timer mode watchdog grace period
	TimeoutCeiling  int           `mapstructure:"timeout_ceiling"`  // consecutive timeouts before forced finalize
	MaxLimitTries   int           `mapstructure:"max_limit_tries"`  // attempts to enter a custom question limit
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("quiz_directory", "quiz")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("dispatch.ops_per_second", 30)
	v.SetDefault("dispatch.queue_size", 256)
	v.SetDefault("quota.max_attempts_per_hour", 4)
	v.SetDefault("quota.block_duration", "20m")
	v.SetDefault("quiz.timer_base", "10s")
	v.SetDefault("quiz.timer_max", "30s")
	v.SetDefault("quiz.inactivity_grace", "2m")
	v.SetDefault("quiz.timeout_ceiling", 4)
	v.SetDefault("quiz.max_limit_tries", 5)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}
