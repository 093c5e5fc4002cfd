// Package config loads runtime settings from the process environment, optionally
// seeded from a local .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL, required"`
	Port        string `env:"PORT, default=8080"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`
	LogPretty   bool   `env:"LOG_PRETTY, default=false"`
	WebOrigin   string `env:"WEB_ORIGIN, default=http://localhost:8080"`
	StaticDir   string `env:"STATIC_DIR, default=./files"`

	// PasswordLegacy accepts stored djb2/UUIDv3 password hashes and upgrades
	// them to bcrypt on the next successful login.
	PasswordLegacy bool `env:"PASSWORD_LEGACY, default=false"`

	DB      DBConfig
	Redis   RedisConfig
	Session SessionConfig
}

type DBConfig struct {
	MaxConns       int           `env:"DB_MAX_CONNS, default=5"`
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT, default=3s"`
}

// RedisConfig is optional; an empty Addr keeps sessions in process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type SessionConfig struct {
	// TTL of zero means sessions never expire.
	TTL time.Duration `env:"SESSION_TTL, default=0s"`
}

// SecureCookies reports whether the session cookie should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.WebOrigin, "https://")
}

// LoadEnv reads .env into the process environment when the file exists.
// Variables that are already set win over the file.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads .env (if present) and processes the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DB.MaxConns <= 0 {
		cfg.DB.MaxConns = 5
	}
	return &cfg, nil
}
