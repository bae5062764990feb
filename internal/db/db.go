package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sabacc_bot/internal/logger"
)

// Connect открывает пул и проверяет соединение; без базы процесс не стартует
func Connect(url string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		logger.Fatal("invalid DATABASE_URL", "error", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create db pool", "error", err)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("db ping failed", "error", err)
	}
	return pool
}
