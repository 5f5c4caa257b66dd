package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/bot"
	"kopilka/internal/config"
	"kopilka/internal/gateway"
	"kopilka/internal/log"
	"kopilka/internal/rates"
	"kopilka/internal/services"
	"kopilka/internal/storage"
)

// janitorInterval is how often idle dialog sessions are swept.
const janitorInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.ParseLevel(cfg.LogLevel))

	logger.Info("Starting kopilka bot core")

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

	rateCache := rates.NewDefault(cfg.RatesURL)

	ledger := services.NewLedger(repo, rateCache, cfg.BaseCurrency, cfg.QuoteCurrency)
	budgets := services.NewBudgets(repo, repo)
	goals := services.NewGoals(repo, ledger)

	gw, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP gateway", log.FieldError, err)
		os.Exit(1)
	}
	defer gw.Close()

	core, err := bot.New(ledger, budgets, goals, rateCache, gw, cfg.SessionIdleTimeout, logger)
	if err != nil {
		logger.Error("Failed to initialize bot", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gw.ConsumeInbound(ctx, core.HandleEvent)
	})
	g.Go(func() error {
		rateCache.Run(ctx, cfg.RatesInterval)
		return nil
	})
	g.Go(func() error {
		core.Dialogs().Run(ctx, janitorInterval)
		return nil
	})

	logger.Info("Bot core running",
		"inbound_queue", cfg.AMQPInboundQueue,
		"outbound_queue", cfg.AMQPOutboundQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot core stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot core stopped gracefully")
}
