package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusconnect/internal/config"
	"campusconnect/internal/database"
	"campusconnect/internal/logging"
	"campusconnect/internal/server"
	"campusconnect/pkg/rabbitmq"
	"campusconnect/pkg/redislock"

	"github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logging.New(cfg.Logging)

	// --- Database ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	deps := server.Dependencies{Config: cfg, DB: db, Logger: log}

	// --- RabbitMQ (optional) ---
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange}, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		deps.Events = mqClient

		if err := mqClient.ConsumeOrderEvents("order_notifications", rabbitmq.LogNotifications(log)); err != nil {
			log.WithError(err).Error("Failed to start RabbitMQ consumer")
		}
	} else {
		log.Warn("RABBITMQ_URL not set, order events are not published")
	}

	// --- Redis checkout lock (optional) ---
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := redislock.NewClient(ctx, redislock.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		deps.Locker = redislock.New(redisClient, log)
	} else {
		log.Warn("REDIS_ADDR not set, checkouts run without a distributed lock")
	}

	app := server.New(deps)

	// --- Start HTTP Server ---
	log.WithField("port", cfg.App.Port).Info("Starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.App.Port); err != nil {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server gracefully stopped")
}
