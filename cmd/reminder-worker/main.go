package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kopilka/internal/config"
	"kopilka/internal/gateway"
	"kopilka/internal/log"
	"kopilka/internal/scheduler"
	"kopilka/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.ParseLevel(cfg.LogLevel))

	logger.Info("Starting reminder worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	gw, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP gateway", log.FieldError, err)
		os.Exit(1)
	}
	defer gw.Close()

	hour, minute, err := config.ParseClock(cfg.ReminderAt)
	if err != nil {
		logger.Error("Invalid reminder time", log.FieldError, err, "reminder_at", cfg.ReminderAt)
		os.Exit(1)
	}

	reminder := scheduler.New(repo, gw, hour, minute, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Reminder worker running", "reminder_at", cfg.ReminderAt)

	if err := reminder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reminder worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Reminder worker stopped gracefully")
}
