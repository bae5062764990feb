package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sabacc_bot/internal/bot"
	"sabacc_bot/internal/config"
	"sabacc_bot/internal/db"
	"sabacc_bot/internal/game"
	httpServer "sabacc_bot/internal/http"
	"sabacc_bot/internal/http/handlers"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/repository"
	"sabacc_bot/internal/service"
	"sabacc_bot/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.JSONLogs())
	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	games := service.NewGameService(store, game.NewSecureRandom(), cfg.StartingTokens)

	// история и журнал действий нужны только при настроенной базе
	var history *repository.HistoryRepository
	if cfg.DatabaseURL != "" {
		dbPool := db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		if err := db.Migrate(ctx, dbPool); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		history = repository.NewHistoryRepository(dbPool)
		games.SetHistory(history)
		games.SetAudit(service.NewAuditService(repository.NewEventRepository(dbPool)))
	} else {
		log.Warn("DATABASE_URL not set - game history and audit log disabled")
	}

	tokens := service.NewSpectatorTokens(cfg.JWTSecret, cfg.SpectatorTokenTTL)

	hub := ws.NewHub()
	hub.StartCleanup(ctx, time.Minute)
	games.Subscribe(hub.Publish)

	api := handlers.NewHandler(games, tokens, cfg.BotToken, cfg.PublicURL, Version)
	if history != nil {
		api.SetStats(history)
	}

	r := gin.Default()
	r.Use(httpServer.CORS(cfg.AllowedOrigin))
	httpServer.RegisterRoutes(r, api, ws.NewSpectatorHandler(hub, tokens, games, cfg.AllowedOrigin))

	var sabaccBot *bot.SabaccBot
	if cfg.BotEnabled {
		var err error
		sabaccBot, err = bot.NewSabaccBot(cfg.BotToken, games, tokens, cfg.PublicURL)
		if err != nil {
			log.Error("failed to start bot", "error", err)
		} else {
			if history != nil {
				sabaccBot.SetLeaderboard(history)
			}
			go sabaccBot.Start()
			log.Info("bot started")
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Плавная остановка бота
	if sabaccBot != nil {
		sabaccBot.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

// openStore выбирает хранилище столов по SESSION_STORE
func openStore(ctx context.Context, cfg *config.Config) (service.SessionStore, func()) {
	log := logger.Get()
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := repository.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis unavailable", "error", err)
		}
		log.Info("session store: redis", "ttl", cfg.SessionTTL)
		return repository.NewRedisSessionStore(rdb, cfg.SessionTTL), func() { rdb.Close() }

	case config.StoreSQLite:
		store, err := repository.OpenSQLiteSessionStore(cfg.SQLitePath, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("sqlite unavailable", "path", cfg.SQLitePath, "error", err)
		}
		log.Info("session store: sqlite", "path", cfg.SQLitePath, "ttl", cfg.SessionTTL)
		go purgeExpired(ctx, store)
		return store, func() { store.Close() }

	default:
		log.Warn("session store: memory - tables are lost on restart")
		return repository.NewMemorySessionStore(), func() {}
	}
}

// purgeExpired раз в час удаляет просроченные столы из sqlite
func purgeExpired(ctx context.Context, store *repository.SQLiteSessionStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Error("purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
