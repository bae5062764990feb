package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"sabacc_bot/internal/logger"
)

const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config - настройки процесса из окружения (и необязательного .env)
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	BotToken   string `env:"BOT_TOKEN"`
	BotEnabled bool   `env:"BOT_ENABLED" envDefault:"true"`

	// пустой DATABASE_URL отключает историю и журнал действий
	DatabaseURL string `env:"DATABASE_URL"`

	SessionStore string        `env:"SESSION_STORE" envDefault:"redis"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"sabacc.db"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	StartingTokens int `env:"STARTING_TOKENS" envDefault:"6"`

	JWTSecret         string        `env:"JWT_SECRET"`
	SpectatorTokenTTL time.Duration `env:"SPECTATOR_TOKEN_TTL" envDefault:"6h"`
	PublicURL         string        `env:"PUBLIC_URL"`
	AllowedOrigin     string        `env:"ALLOWED_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Parse читает конфиг только из окружения
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load подхватывает .env, если он есть, и завершает процесс при ошибке
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env not loaded", "error", err)
	}
	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreRedis, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be %q, %q or %q, got %q", StoreRedis, StoreSQLite, StoreMemory, c.SessionStore)
	}
	if c.StartingTokens <= 0 {
		return fmt.Errorf("STARTING_TOKENS must be positive, got %d", c.StartingTokens)
	}
	if c.BotEnabled && c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required when BOT_ENABLED is set")
	}
	return nil
}

func (c *Config) JSONLogs() bool {
	return c.LogFormat == "json"
}
