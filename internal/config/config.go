package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Address the dashboard listens on, host:port.
	Address string

	// RefreshInterval is the auto-refresh period in seconds, kept as the raw
	// user-supplied string; the scheduler applies the clamp/fallback rules.
	RefreshInterval string

	AutoRefresh bool

	LogLevel string

	// DatabaseDSN enables the Postgres source catalog when non-empty.
	DatabaseDSN string

	// LocalRoot is prepended to relative local-source paths.
	LocalRoot string
}

// Load reads configuration from environment variables and an optional
// ./configs/config.yaml, with defaults below. Environment keys map "." to "_"
// (REFRESH_INTERVAL, DATABASE_DSN, ...).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("Address", "localhost:8080")
	v.SetDefault("RefreshInterval", "10")
	v.SetDefault("AutoRefresh", false)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("DatabaseDSN", "")
	v.SetDefault("LocalRoot", ".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("Address must not be empty")
	}

	return &cfg, nil
}
