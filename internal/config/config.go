// Package config loads the relay runtime configuration from an optional
// file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Relay modes. The mode is chosen once at startup and never changes for the
// lifetime of the process.
const (
	ModeBroadcast = "broadcast"
	ModeDirect    = "direct"
)

// History store backends.
const (
	HistoryBackendRedis  = "redis"
	HistoryBackendMemory = "memory"
)

// Config captures the relay server runtime parameters.
type Config struct {
	ListenAddress       string          `mapstructure:"listen_address"`
	Mode                string          `mapstructure:"mode"`
	LogLevel            string          `mapstructure:"log_level"`
	AllowedOrigins      []string        `mapstructure:"-"`
	MaxMessageSize      int64           `mapstructure:"max_message_size"`
	RateLimit           RateLimitConfig `mapstructure:"rate_limit"`
	History             HistoryConfig   `mapstructure:"history"`
	ShutdownGracePeriod time.Duration   `mapstructure:"shutdown_grace_period"`
}

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `mapstructure:"burst"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
}

// HistoryConfig describes how the history store client is initialized.
type HistoryConfig struct {
	Backend    string      `mapstructure:"backend"`
	ChannelKey string      `mapstructure:"channel_key"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds connection parameters for the Redis history backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

const (
	defaultListenAddress       = ":8080"
	defaultMode                = ModeBroadcast
	defaultLogLevel            = "info"
	defaultMaxMessageSize      = 4096
	defaultRateLimitBurst      = 20
	defaultRefillInterval      = time.Second
	defaultHistoryBackend      = HistoryBackendRedis
	defaultChannelKey          = "chat_messages"
	defaultRedisAddr           = "localhost:6379"
	defaultShutdownGracePeriod = 10 * time.Second
)

// Load reads configuration from the provided file path (if any) and the environment.
// Environment variables are prefixed with RELAY_ and can override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_address", defaultListenAddress)
	v.SetDefault("mode", defaultMode)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("max_message_size", defaultMaxMessageSize)
	v.SetDefault("rate_limit.burst", defaultRateLimitBurst)
	v.SetDefault("rate_limit.refill_interval", defaultRefillInterval.String())
	v.SetDefault("history.backend", defaultHistoryBackend)
	v.SetDefault("history.channel_key", defaultChannelKey)
	v.SetDefault("history.redis.addr", defaultRedisAddr)
	v.SetDefault("history.redis.password", "")
	v.SetDefault("history.redis.db", 0)
	v.SetDefault("shutdown_grace_period", defaultShutdownGracePeriod.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Viper leaves durations as strings; normalize them here.
	for key, dst := range map[string]*time.Duration{
		"rate_limit.refill_interval": &cfg.RateLimit.RefillInterval,
		"shutdown_grace_period":      &cfg.ShutdownGracePeriod,
	} {
		dur, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = dur
	}

	// Origins are configured as a comma separated string so the same form
	// works in files and in RELAY_ALLOWED_ORIGINS.
	cfg.AllowedOrigins = splitOrigins(v.GetString("allowed_origins"))

	cfg = applyFloors(cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitOrigins turns a comma separated env value into a clean origin list.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func applyFloors(cfg Config) Config {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaultRateLimitBurst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaultRefillInterval
	}
	if cfg.History.ChannelKey == "" {
		cfg.History.ChannelKey = defaultChannelKey
	}
	if cfg.ShutdownGracePeriod <= 0 {
		cfg.ShutdownGracePeriod = defaultShutdownGracePeriod
	}
	return cfg
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeBroadcast, ModeDirect:
	default:
		return fmt.Errorf("invalid mode %q: must be %q or %q", c.Mode, ModeBroadcast, ModeDirect)
	}

	switch c.History.Backend {
	case HistoryBackendRedis, HistoryBackendMemory:
	default:
		return fmt.Errorf("invalid history backend %q: must be %q or %q",
			c.History.Backend, HistoryBackendRedis, HistoryBackendMemory)
	}
	return nil
}
