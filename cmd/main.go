package main

import (
	"context"
	"net/http"
	"time"

	"veilmatch/backend/internal/api/handler"
	"veilmatch/backend/internal/config"
	"veilmatch/backend/internal/engine"
	"veilmatch/backend/internal/models"
	"veilmatch/backend/internal/notify"
	"veilmatch/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config, log *zap.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect PostgreSQL", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to connect Redis", zap.Error(err))
	}

	err = db.AutoMigrate(
		&models.UserProfile{},
		&storage.CompletedMatchRecord{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	log.Info("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg, logger)
	s := storage.NewService(db, rdb, logger)

	var notifier notify.Notifier
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, logger)
		if err != nil {
			logger.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	eng := engine.New(s, notifier, cfg.GracePeriod, logger)
	eng.Restore() // анонімні матчі, що пережили рестарт

	r := gin.Default()
	h := handler.NewHandler(eng, cfg.JWTSecret, logger)

	r.GET("/token", h.GetToken)       // JWT для сокет-сесії
	r.GET("/ws", h.ServeWebSocket)    // WebSocket Upgrade
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	logger.Info("starting veilmatch backend", zap.String("addr", cfg.ListenAddr))
	logger.Fatal("server stopped", zap.Error(server.ListenAndServe()))
}
