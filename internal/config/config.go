// internal/config/config.go

// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jason-s-yu/oracle/internal/database"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Trial counter backends.
const (
	CounterClient = "client"
	CounterRedis  = "redis"
)

type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"dev"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Store selects the persistence backend. memory keeps everything in process.
	Store string `yaml:"store" env:"STORE" env-default:"postgres"`

	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Trial       TrialConfig       `yaml:"trial"`
}

// DatabaseConfig holds PostgreSQL settings. URL wins over the individual fields.
type DatabaseConfig struct {
	URL      string `yaml:"-" env:"DATABASE_URL"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"`
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	Name     string `yaml:"database" env:"PG_DATABASE" env-default:"oracle"`
}

type RedisConfig struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	DB   int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AuthConfig configures token signing. Without key paths a fresh key pair is
// generated at start-up and tokens do not survive a restart.
type AuthConfig struct {
	TokenExpire    string `yaml:"token_expire_time" env:"TOKEN_EXPIRE_TIME" env-default:"168h"`
	PrivateKeyPath string `yaml:"jwt_private_key_path" env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath  string `yaml:"jwt_public_key_path" env:"JWT_PUBLIC_KEY_PATH"`
}

type InterpreterConfig struct {
	Provider       string        `yaml:"provider" env:"INTERPRETER_PROVIDER" env-default:"openrouter"`
	BaseURL        string        `yaml:"base_url" env:"OPENROUTER_API_URL"`
	APIKey         string        `yaml:"-" env:"OPENROUTER_API_KEY"`
	Model          string        `yaml:"model" env:"INTERPRETER_MODEL" env-default:"deepseek/deepseek-chat"`
	AnthropicURL   string        `yaml:"anthropic_url" env:"ANTHROPIC_API_URL"`
	AnthropicKey   string        `yaml:"-" env:"ANTHROPIC_API_KEY"`
	AnthropicModel string        `yaml:"anthropic_model" env:"ANTHROPIC_MODEL" env-default:"claude-3-5-haiku-latest"`
	Timeout        time.Duration `yaml:"timeout" env:"INTERPRETER_TIMEOUT" env-default:"90s"`
	MaxAttempts    int           `yaml:"max_attempts" env:"INTERPRETER_MAX_ATTEMPTS" env-default:"2"`
}

type TrialConfig struct {
	Counter string        `yaml:"counter" env:"TRIAL_COUNTER" env-default:"client"`
	TTL     time.Duration `yaml:"ttl" env:"TRIAL_TTL" env-default:"720h"`
}

// Load reads path when it is non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Store = strings.ToLower(c.Store)
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	c.Trial.Counter = strings.ToLower(c.Trial.Counter)
	switch c.Trial.Counter {
	case CounterClient, CounterRedis:
	default:
		return fmt.Errorf("unknown trial counter %q", c.Trial.Counter)
	}

	if (c.Auth.PrivateKeyPath == "") != (c.Auth.PublicKeyPath == "") {
		return fmt.Errorf("both jwt_private_key_path and jwt_public_key_path must be provided together")
	}
	if c.Auth.PrivateKeyPath != "" {
		for _, p := range []string{c.Auth.PrivateKeyPath, c.Auth.PublicKeyPath} {
			if _, err := os.Stat(p); err != nil {
				return fmt.Errorf("key file does not exist: %w", err)
			}
		}
	}
	if c.Interpreter.MaxAttempts < 1 {
		return fmt.Errorf("interpreter max attempts must be at least 1, got %d", c.Interpreter.MaxAttempts)
	}
	return nil
}

// IsDev reports whether the service runs in a development environment.
func (c *Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DatabaseURL returns DATABASE_URL or a DSN assembled from the individual fields.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	d := c.Database
	return database.DSN(d.User, d.Password, d.Host, d.Port, d.Name)
}
