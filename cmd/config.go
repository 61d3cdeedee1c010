package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/database"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env                    string        `mapstructure:"ENV"`
	LogLevel               string        `mapstructure:"LOG_LEVEL"`
	HTTPPort               string        `mapstructure:"HTTP_PORT"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBHost                 string        `mapstructure:"DB_HOST"`
	DBPort                 string        `mapstructure:"DB_PORT"`
	DBUser                 string        `mapstructure:"DB_USER"`
	DBPassword             string        `mapstructure:"DB_PASSWORD"`
	DBName                 string        `mapstructure:"DB_NAME"`
	DBSslMode              string        `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns         int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns         int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	OrderLockTTL           time.Duration `mapstructure:"ORDER_LOCK_TTL"`
	KafkaHost              string        `mapstructure:"KAFKA_HOST"`
	KafkaOrderChangedTopic string        `mapstructure:"KAFKA_ORDER_CHANGED_TOPIC"`
	JWTSigningKey          string        `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer              string        `mapstructure:"JWT_ISSUER"`
	AutoCancelCutoff       string        `mapstructure:"AUTO_CANCEL_CUTOFF"`
	AutoCancelSchedule     string        `mapstructure:"AUTO_CANCEL_SCHEDULE"`
	Timezone               string        `mapstructure:"TIMEZONE"`
}

var configKeys = []string{
	"ENV", "LOG_LEVEL", "HTTP_PORT",
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"REDIS_URL", "ORDER_LOCK_TTL",
	"KAFKA_HOST", "KAFKA_ORDER_CHANGED_TOPIC",
	"JWT_SIGNING_KEY", "JWT_ISSUER",
	"AUTO_CANCEL_CUTOFF", "AUTO_CANCEL_SCHEDULE", "TIMEZONE",
}

// LoadConfig reads the process environment. Values from a .env file in the
// working directory are loaded first and never override variables already set.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("ORDER_LOCK_TTL", "30s")
	v.SetDefault("KAFKA_ORDER_CHANGED_TOPIC", "order.status_changed")
	v.SetDefault("AUTO_CANCEL_CUTOFF", "17:00")
	v.SetDefault("AUTO_CANCEL_SCHEDULE", "0 * * * * *")
	v.SetDefault("TIMEZONE", "Local")
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the values needed to serve traffic.
func (c Config) Validate() error {
	if c.DatabaseURL == "" && (c.DBHost == "" || c.DBName == "") {
		return errors.New("DATABASE_URL or DB_HOST and DB_NAME must be set")
	}
	if c.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required")
	}
	if c.IsProduction() && len(c.JWTSigningKey) < 32 {
		return errors.New("JWT_SIGNING_KEY must be at least 32 characters in production")
	}
	if _, err := c.Cutoff(); err != nil {
		return fmt.Errorf("AUTO_CANCEL_CUTOFF: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	if c.OrderLockTTL <= 0 {
		return errors.New("ORDER_LOCK_TTL must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) Database() database.Config {
	return database.Config{
		URL:          c.DatabaseURL,
		Host:         c.DBHost,
		Port:         c.DBPort,
		User:         c.DBUser,
		Password:     c.DBPassword,
		Name:         c.DBName,
		SSLMode:      c.DBSslMode,
		MaxOpenConns: c.DBMaxOpenConns,
		MaxIdleConns: c.DBMaxIdleConns,
	}
}

func (c Config) Cutoff() (kernel.TimeOfDay, error) {
	return kernel.ParseTimeOfDay(c.AutoCancelCutoff)
}

// Location resolves TIMEZONE. Empty and "Local" both mean the server zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
