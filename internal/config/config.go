package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-jwt-secret"

const (
	LockDB    = "db"
	LockMutex = "mutex"
	LockRedis = "redis"

	SyncInline = "inline"
	SyncAsynq  = "asynq"
	SyncOff    = "off"
)

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTAccessTTL time.Duration `mapstructure:"JWT_ACCESS_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	LockBackend string        `mapstructure:"LOCK_BACKEND"`
	LockTTL     time.Duration `mapstructure:"LOCK_TTL"`
	LockWait    time.Duration `mapstructure:"LOCK_WAIT"`

	SyncBackend       string `mapstructure:"SYNC_BACKEND"`
	CalendarSyncURL   string `mapstructure:"CALENDAR_SYNC_URL"`
	CalendarSyncToken string `mapstructure:"CALENDAR_SYNC_TOKEN"`

	AMQPURL     string `mapstructure:"AMQP_URL"`
	NotifyQueue string `mapstructure:"NOTIFY_QUEUE"`

	RetryMaxAttempts        int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBaseDelay          time.Duration `mapstructure:"RETRY_BASE_DELAY"`
	RecurringMaxOccurrences int           `mapstructure:"RECURRING_MAX_OCCURRENCES"`

	FinalizeInterval time.Duration `mapstructure:"FINALIZE_INTERVAL"`
	FinalizeGrace    time.Duration `mapstructure:"FINALIZE_GRACE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DATABASE_URL", "venuebook.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_BACKEND", LockDB)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("LOCK_WAIT", "3s")
	v.SetDefault("SYNC_BACKEND", SyncInline)
	v.SetDefault("CALENDAR_SYNC_URL", "")
	v.SetDefault("CALENDAR_SYNC_TOKEN", "")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("NOTIFY_QUEUE", "venuebook.reservations")
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", "200ms")
	v.SetDefault("RECURRING_MAX_OCCURRENCES", 52)
	v.SetDefault("FINALIZE_INTERVAL", "5m")
	v.SetDefault("FINALIZE_GRACE", "1h")
}

// Load reads an optional .env, then config.yaml (cwd or ./config), then the
// environment, which wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))
	cfg.SyncBackend = strings.ToLower(strings.TrimSpace(cfg.SyncBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	durations := map[string]time.Duration{
		"JWT_ACCESS_TTL":    c.JWTAccessTTL,
		"LOCK_TTL":          c.LockTTL,
		"LOCK_WAIT":         c.LockWait,
		"RETRY_BASE_DELAY":  c.RetryBaseDelay,
		"FINALIZE_INTERVAL": c.FinalizeInterval,
		"FINALIZE_GRACE":    c.FinalizeGrace,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if c.RecurringMaxOccurrences < 1 {
		return fmt.Errorf("RECURRING_MAX_OCCURRENCES must be >= 1")
	}

	switch c.LockBackend {
	case LockDB, LockMutex, LockRedis:
	default:
		return fmt.Errorf("LOCK_BACKEND must be one of: db, mutex, redis")
	}
	switch c.SyncBackend {
	case SyncInline, SyncAsynq, SyncOff:
	default:
		return fmt.Errorf("SYNC_BACKEND must be one of: inline, asynq, off")
	}
	if (c.LockBackend == LockRedis || c.SyncBackend == SyncAsynq) && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("REDIS_ADDR is required for redis locks and the asynq sync queue")
	}

	if c.IsProdLike() {
		if isEmptyOrDefault(c.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
