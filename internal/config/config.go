package config

import "time"

// Config holds all application configuration.
// Settings are grouped by the component that consumes them.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Realtime RealtimeConfig `mapstructure:"realtime" validate:"required"`
	Events   EventsConfig   `mapstructure:"events" validate:"required"`
	Uploads  UploadsConfig  `mapstructure:"uploads" validate:"required"`
	Quote    QuoteConfig    `mapstructure:"quote" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
}

// RealtimeConfig controls the websocket session layer.
type RealtimeConfig struct {
	HeartbeatIntervalSeconds int `mapstructure:"heartbeat_interval_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds      int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	MaxMessageBytes          int `mapstructure:"max_message_bytes" validate:"required,gt=0"`
	// AllowedOrigins lists origins accepted during the websocket upgrade.
	// An empty list accepts any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HeartbeatInterval returns the heartbeat period as a duration.
func (c RealtimeConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

// WriteTimeout returns the per-frame write deadline as a duration.
func (c RealtimeConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// EventsConfig sizes the background delivery pipeline used for broadcasts.
type EventsConfig struct {
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
}

// UploadsConfig controls attachment storage.
type UploadsConfig struct {
	Dir          string `mapstructure:"dir" validate:"required"`
	MaxSizeBytes int64  `mapstructure:"max_size_bytes" validate:"required,gt=0"`
}

// QuoteConfig configures the motivational quote integration.
type QuoteConfig struct {
	URL            string `mapstructure:"url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int    `mapstructure:"max_retries" validate:"gte=0"`
	// GeminiAPIKey enables generated quotes when the upstream service is unavailable.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model" validate:"required"`
}
