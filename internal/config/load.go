package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. TASKFLOW_SERVER_PORT or TASKFLOW_AUTH_JWT_SECRET.
const EnvPrefix = "TASKFLOW"

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":        "server.port",
	"log-level":   "server.log_level",
	"uploads-dir": "uploads.dir",
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and environment variables. Environment variables take
// precedence over the file. The result is validated before it is returned.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command-line overrides. Flags that were set
// explicitly win over environment variables; unset flags are ignored.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"database.url", "auth.jwt_secret", "quote.gemini_api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("realtime.heartbeat_interval_seconds", 30)
	v.SetDefault("realtime.write_timeout_seconds", 10)
	v.SetDefault("realtime.max_message_bytes", 64*1024)
	v.SetDefault("realtime.allowed_origins", []string{})

	v.SetDefault("events.queue_size", 256)
	v.SetDefault("events.worker_count", 2)

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_size_bytes", 10*1024*1024)

	v.SetDefault("quote.url", "https://api.quotable.io/random")
	v.SetDefault("quote.timeout_seconds", 10)
	v.SetDefault("quote.max_retries", 3)
	v.SetDefault("quote.gemini_model", "gemini-2.0-flash")
}
