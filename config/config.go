package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"go-restaurant-ordering/api"
)

// Config holds the settings of the kitchen board host.
type Config struct {
	APIBase           string        `mapstructure:"api_base"`
	RestaurantName    string        `mapstructure:"restaurant_name"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	PushPath          string        `mapstructure:"push_path"`
	PushRetryInterval time.Duration `mapstructure:"push_retry_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	AuthToken         string        `mapstructure:"auth_token"`
}

var keys = []string{
	"api_base",
	"restaurant_name",
	"poll_interval",
	"push_path",
	"push_retry_interval",
	"request_timeout",
	"auth_token",
}

// Load reads envFile when it exists, then resolves every key from the
// environment (upper-cased, e.g. API_BASE) over the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			slog.Debug("env file not found, using environment and defaults", "file", envFile)
		}
	}

	v := viper.New()
	v.SetDefault("api_base", "http://localhost:8000/api")
	v.SetDefault("restaurant_name", "")
	v.SetDefault("poll_interval", 6*time.Second)
	v.SetDefault("push_path", api.DefaultPushPath)
	v.SetDefault("push_retry_interval", time.Duration(0))
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("auth_token", "")

	v.AutomaticEnv()
	for _, key := range keys {
		// Unmarshal only sees env values for keys viper knows about.
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := api.PushURL(c.APIBase, c.PushPath); err != nil {
		return fmt.Errorf("invalid API_BASE: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.PushRetryInterval < 0 {
		return fmt.Errorf("PUSH_RETRY_INTERVAL must not be negative, got %s", c.PushRetryInterval)
	}
	return nil
}
