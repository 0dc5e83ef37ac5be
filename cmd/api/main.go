package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/config"
	"github.com/grupobacar/helpdesk/internal/db"
	"github.com/grupobacar/helpdesk/internal/httpserver"
	"github.com/grupobacar/helpdesk/internal/mq"
	"github.com/grupobacar/helpdesk/internal/mqhandler"
	"github.com/grupobacar/helpdesk/internal/redisclient"
	"github.com/grupobacar/helpdesk/internal/repository"
	"github.com/grupobacar/helpdesk/internal/service/notification"
	"github.com/grupobacar/helpdesk/internal/service/user"
	"github.com/grupobacar/helpdesk/internal/sse"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting helpdesk notification service",
		zap.String("db_host", cfg.DB.Host),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("port", cfg.Server.Port),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	// Delivery channel
	hub := sse.NewHub()
	broadcaster := sse.NewBroadcaster(hub, rdb, logger)

	// Repositories
	notificationRepo := repository.NewNotificationRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)

	// Services
	notifier := notification.NewService(notificationRepo, userRepo, broadcaster, logger)
	authService := user.NewService(userRepo, cfg.JWT.Secret)

	// MQ consumers: domain events -> notifications
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	deduper := mqhandler.NewDeduper(rdb, 24*time.Hour)
	consumers := []*mq.Consumer{}
	handlers := map[string]mq.MessageHandler{
		mq.RoutingKeyTicketUpdated:   mqhandler.NewTicketUpdatedHandler(notifier, deduper, logger).Handle,
		mq.RoutingKeyPaymentReceived: mqhandler.NewPaymentReceivedHandler(notifier, deduper, logger).Handle,
	}
	for routingKey, handler := range handlers {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, routingKey, logger)
		if err != nil {
			logger.Fatal("Failed to init consumer",
				zap.String("routing_key", routingKey),
				zap.Error(err),
			)
		}
		consumer.SetHandler(handler)
		consumers = append(consumers, consumer)

		go func(c *mq.Consumer, key string) {
			if err := c.StartConsuming(consumerCtx); err != nil {
				logger.Fatal("Consumer failed", zap.String("routing_key", key), zap.Error(err))
			}
		}(consumer, routingKey)
	}

	// Handlers and router
	authHandler := httpserver.NewAuthHandler(authService)
	notificationHandler := httpserver.NewNotificationHandler(notifier, logger)
	eventsHandler := httpserver.NewEventsHandler(hub, cfg.JWT.Secret, logger)

	router := httpserver.NewRouter(authHandler, notificationHandler, eventsHandler, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully")

	consumerCancel()
	for _, consumer := range consumers {
		consumer.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
