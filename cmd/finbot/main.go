// The finbot binary runs the Telegram bot: it loads configuration,
// wires the dialog engine to the collaborator services, and polls
// Telegram until the process is signalled.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finbot/internal/bot"
	"finbot/internal/client"
	"finbot/internal/config"
	"finbot/internal/dialog"
	"finbot/internal/logger"
	"finbot/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("finbot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := session.NewStore(cfg.Session.TTL)
	go store.Run(ctx, cfg.Session.SweepInterval)

	engine := dialog.New(
		store,
		client.NewBackend(cfg.Services.Backend.URL, cfg.Services.Backend.RequestTimeout),
		client.NewRates(cfg.Services.Rates.URL, cfg.Services.Rates.RequestTimeout),
	)

	logger.L.Info("starting bot",
		slog.String("event", "startup"),
		slog.String("payload", cfg.Telegram.RunMode),
	)

	err = bot.Run(ctx, bot.Options{Config: cfg, Engine: engine})

	logger.L.Info("shutting down",
		slog.String("event", "shutdown"),
		slog.String("status", logger.Status(err)),
	)
	return err
}
