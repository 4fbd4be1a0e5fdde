package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultPepper  = "secret-random-string"
	defaultHMACKey = "secret-hmac-key"
)

// Config holds the configuration of the app. It's read from an optional json
// config file and from environment variables prefixed with TWEETAPI_, with the
// dots of nested keys replaced by underscores, e.g. TWEETAPI_DATABASE_HOST.
type Config struct {
	Port     int            `mapstructure:"port"`
	Env      string         `mapstructure:"env"`
	Pepper   string         `mapstructure:"pepper"`
	HMACKey  string         `mapstructure:"hmac_key"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CSRF     CSRFConfig     `mapstructure:"csrf"`
}

// DatabaseConfig selects and configures the database. Path is only used by sqlite.
type DatabaseConfig struct {
	Dialect  string `mapstructure:"dialect"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
}

type SessionConfig struct {
	Store      string        `mapstructure:"store"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	Mode   string `mapstructure:"mode"`
	Header string `mapstructure:"header"`
}

type CSRFConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"`
}

// IsProd tells whether the app runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// ConnectionInfo returns the postgres connection string.
func (dc DatabaseConfig) ConnectionInfo() string {
	if dc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable",
			dc.Host, dc.Port, dc.User, dc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dc.Host, dc.Port, dc.User, dc.Password, dc.Name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 1111)
	v.SetDefault("env", "dev")
	v.SetDefault("pepper", defaultPepper)
	v.SetDefault("hmac_key", defaultHMACKey)

	v.SetDefault("database.dialect", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "tweetapi")
	v.SetDefault("database.path", "tweetapi.db")

	v.SetDefault("session.store", "sql")
	v.SetDefault("session.cookie_name", "session_token")
	v.SetDefault("session.ttl", "336h")
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.mode", "session")
	v.SetDefault("auth.header", "X-Username")

	v.SetDefault("csrf.enabled", false)
	v.SetDefault("csrf.key", "")
}

// LoadConfig reads the configuration. A .env file in the working directory is
// loaded into the environment first, without overriding variables that are already set.
// In production the config file must exist, and the default secrets are rejected.
func LoadConfig(path string, isProd bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TWEETAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if isProd || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if isProd {
		cfg.Env = "prod"
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Dialect {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database.dialect %q", c.Database.Dialect)
	}
	switch c.Session.Store {
	case "sql", "redis":
	default:
		return fmt.Errorf("config: unknown session.store %q", c.Session.Store)
	}
	switch c.Auth.Mode {
	case "session", "trusted-header":
	default:
		return fmt.Errorf("config: unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	if c.CSRF.Enabled && len(c.CSRF.Key) != 32 {
		return errors.New("config: csrf.key must be 32 bytes long")
	}
	if c.IsProd() {
		if c.Pepper == "" || c.Pepper == defaultPepper {
			return errors.New("config: set a pepper for production")
		}
		if c.HMACKey == "" || c.HMACKey == defaultHMACKey {
			return errors.New("config: set an hmac_key for production")
		}
	}
	return nil
}
