package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/audit"
	"github.com/akshayadesk/ticket-board/internal/cache"
	"github.com/akshayadesk/ticket-board/internal/config"
	"github.com/akshayadesk/ticket-board/internal/database"
	"github.com/akshayadesk/ticket-board/internal/handler"
	"github.com/akshayadesk/ticket-board/internal/lifecycle"
	"github.com/akshayadesk/ticket-board/internal/queue"
	"github.com/akshayadesk/ticket-board/internal/router"
	queue_publisher "github.com/akshayadesk/ticket-board/internal/service"
	"github.com/akshayadesk/ticket-board/internal/store"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Transition audit trail (MySQL).
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open audit database", zap.Error(err))
	}
	auditRepo := audit.NewRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		cancel()
		logger.Fatal("ensure audit schema", zap.Error(err))
	}
	cancel()

	// Redis is optional; without it the rate limiter and customer cache
	// are disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and customer cache disabled")
	}

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, logger)
	ticketStore := store.New(client, logger)
	customers := cache.NewDirectory(client, cache.NewCustomerCache(rdb, cfg.CustomerCacheTTL), logger)
	publisher := queue_publisher.New(logger)

	controller := lifecycle.NewController(
		lifecycle.NewMachine(cfg.AllowReopen),
		ticketStore,
		customers,
		client, // document writer
		client, // invoice sender
		publisher,
		auditRepo,
		logger,
	)

	go queue.StartInvoiceConsumer(logger)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, router.Handlers{
		Board:      handler.NewBoardHandler(ticketStore, logger),
		Ticket:     handler.NewTicketHandler(client, ticketStore, logger),
		Transition: handler.NewTransitionHandler(controller, auditRepo, logger),
		Customer:   handler.NewCustomerHandler(client, logger),
	}, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
