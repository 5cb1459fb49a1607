package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backends de sesion soportados.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
	SessionBackendSQLite   = "sqlite"
)

// Config centraliza la configuración del frontend web.
type Config struct {
	HTTPPort          string        `env:"HTTP_PORT" envDefault:"8080"`
	APIBaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	SessionBackend    string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionSecret     string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionMemorySize int           `env:"SESSION_MEMORY_SIZE" envDefault:"10000"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"sessions.db"`
	MaxImageBytes     int64         `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	LoginRateLimit    int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow   time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:"127.0.0.1:9090"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendSQLite:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for session backend %q", c.SessionBackend)
		}
	case SessionBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for session backend %q", c.SessionBackend)
		}
	default:
		return fmt.Errorf("config: unknown session backend %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	return nil
}
