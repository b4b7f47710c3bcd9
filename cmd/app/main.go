package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"partyrooms/internal/bot"
	"partyrooms/internal/config"
	"partyrooms/internal/db"
	"partyrooms/internal/game"
	httpServer "partyrooms/internal/http"
	"partyrooms/internal/http/handlers"
	"partyrooms/internal/http/middleware"
	"partyrooms/internal/logger"
	"partyrooms/internal/repository"
	"partyrooms/internal/rooms"
	"partyrooms/internal/service"

	"github.com/gin-gonic/gin"
)

// Version устанавливается при сборке
var Version = "dev"

const (
	limiterPruneSpec = "@every 1m"
	limiterIdle      = 10 * time.Minute
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	service.InitJWT()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("migrations failed", "error", err)
	}
	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	auditService := service.NewAuditService(dbPool)
	balanceService := service.NewBalanceService(dbPool)
	authService := service.NewAuthService(dbPool, auditService, cfg.BotToken, cfg.TokenTTL)

	opts := rooms.Options{
		Factory:   game.NewFactory(cfg.Game),
		Wallet:    balanceService,
		Store:     repository.NewRoomRepository(dbPool),
		Auditor:   auditService,
		Retention: cfg.FinishedRetention,
	}

	// бот шлет игрокам старт и итог игры
	var notifier *bot.Bot
	if cfg.NotifyEnabled {
		b, err := bot.New(cfg.BotToken, cfg.AppURL)
		if err != nil {
			log.Error("failed to start notifier bot", "error", err)
		} else {
			notifier = b
			opts.Notifier = b
		}
	}

	hub := rooms.NewHub(opts)
	if notifier != nil {
		notifier.SetRoomLister(hub)
		go notifier.Start()
		log.Info("notifier bot started")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.StartSweeper(ctx, cfg.SweepSpec); err != nil {
		logger.Fatal("invalid SWEEP_SPEC", "spec", cfg.SweepSpec, "error", err)
	}

	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	limiter := middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RateLimitRPS, cfg.RateLimitBurst)
	// ведра в памяти копятся по ip, их надо чистить
	if local, ok := limiter.(*middleware.LocalLimiter); ok {
		if err := local.StartPruner(ctx, limiterPruneSpec, limiterIdle); err != nil {
			logger.Fatal("rate limiter pruner failed", "error", err)
		}
	}
	httpServer.RegisterRoutes(r, &handlers.Handler{
		Hub:          hub,
		Auth:         authService,
		Balance:      balanceService,
		AuditService: auditService,
	}, limiter, Version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	if notifier != nil {
		notifier.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// дописываем комнаты и выплаты, запущенные в фоне
	hub.Wait()
	log.Info("server exited")
}
