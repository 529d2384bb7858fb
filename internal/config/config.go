package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/internal/service/user"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	History   HistoryConfig   `mapstructure:"history"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
	Issuer      string `mapstructure:"issuer"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level string            `mapstructure:"level"`
	File  LoggingFileConfig `mapstructure:"file"`
}

type LoggingFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ScheduleConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type HistoryConfig struct {
	StrictUpdates bool `mapstructure:"strict_updates"`
}

type CacheConfig struct {
	DoctorsTTL      time.Duration `mapstructure:"doctors_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// envOverlay is read from HMS_* variables after the config file so secrets
// never have to live in config.yml.
type envOverlay struct {
	DBHost       string `envconfig:"DB_HOST"`
	DBPort       int    `envconfig:"DB_PORT"`
	DBUser       string `envconfig:"DB_USER"`
	DBPassword   string `envconfig:"DB_PASSWORD"`
	DBName       string `envconfig:"DB_NAME"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	RedisURL     string `envconfig:"REDIS_URL"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	Port         int    `envconfig:"PORT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hms")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.issuer", "hms-api")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "hms:appointments")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.port", 587)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "logs/hms.log")
	v.SetDefault("logging.file.max_size_mb", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age_days", 28)

	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("history.strict_updates", false)

	v.SetDefault("cache.doctors_ttl", time.Minute)
	v.SetDefault("cache.cleanup_interval", 5*time.Minute)
}

// LoadConfig reads config.yml from the usual locations, or path when set.
// A missing file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverlay
	if err := envconfig.Process("hms", &env); err != nil {
		return fmt.Errorf("failed to read HMS_ environment: %w", err)
	}

	if env.DBHost != "" {
		c.Database.Host = env.DBHost
	}
	if env.DBPort != 0 {
		c.Database.Port = env.DBPort
	}
	if env.DBUser != "" {
		c.Database.User = env.DBUser
	}
	if env.DBPassword != "" {
		c.Database.Password = env.DBPassword
	}
	if env.DBName != "" {
		c.Database.Name = env.DBName
	}
	if env.JWTSecret != "" {
		c.JWT.Secret = env.JWTSecret
	}
	if env.RedisURL != "" {
		c.Redis.URL = env.RedisURL
	}
	if env.SMTPPassword != "" {
		c.SMTP.Password = env.SMTPPassword
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	return nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (or set HMS_JWT_SECRET)")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves schedule.timezone; slot windows are computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

func (c *Config) PostgresConfig() postgres.Config {
	return postgres.Config{
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		Name:         c.Database.Name,
		SSLMode:      c.Database.SSLMode,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxOpenConns / 2,
	}
}

func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		Secret: c.JWT.Secret,
		Issuer: c.JWT.Issuer,
		Expiry: time.Duration(c.JWT.ExpiryHours) * time.Hour,
	}
}

func (c *Config) RedisBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

func (c *Config) EmailConfig() email.Config {
	return email.Config{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
	}
}

func (c *Config) LoggerConfig() *logger.Config {
	cfg := &logger.Config{Level: logger.ParseLevel(c.Logging.Level)}
	if c.Logging.File.Enabled {
		cfg.File = &logger.FileConfig{
			Path:       c.Logging.File.Path,
			MaxSizeMB:  c.Logging.File.MaxSizeMB,
			MaxBackups: c.Logging.File.MaxBackups,
			MaxAgeDays: c.Logging.File.MaxAgeDays,
		}
	}
	return cfg
}

func (c *Config) UserCacheConfig() user.CacheConfig {
	return user.CacheConfig{
		DirectoryTTL:    c.Cache.DoctorsTTL,
		CleanupInterval: c.Cache.CleanupInterval,
	}
}
