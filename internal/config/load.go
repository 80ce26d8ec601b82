package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("queue.user_concurrent_limit", 2)
	v.SetDefault("queue.global_concurrent_limit", 10)
	v.SetDefault("queue.visibility_timeout_seconds", 1800)
	v.SetDefault("queue.max_requeues", 0)
	v.SetDefault("queue.reap_interval_seconds", 60)
	v.SetDefault("worker.count", 0)
	v.SetDefault("worker.poll_interval_ms", 500)
	v.SetDefault("worker.poll_jitter_ms", 250)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment and defaults apply.
	}

	// Environment variables with STOCKQ_ prefix, e.g.
	// STOCKQ_QUEUE_USER_CONCURRENT_LIMIT overrides queue.user_concurrent_limit.
	v.SetEnvPrefix("STOCKQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
