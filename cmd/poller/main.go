package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/di"
	tgtransport "bettersaved/infrastructure/telegram"
	tginterface "bettersaved/interfaces/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// The poller runs the bot with long polling and no HTTP listener, for local use.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.TelegramMode = config.ModePolling

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	// updates are not delivered to getUpdates while a webhook is set
	if _, err := container.Bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logger.Warn("Failed to remove webhook", zap.Error(err))
	}
	if err := tgtransport.NewCommandMenu(container.Bot).SetCommands(ctx, tginterface.Menu()); err != nil {
		logger.Warn("Failed to register command menu", zap.Error(err))
	}

	logger.Info("Polling for updates",
		zap.String("bot", container.Bot.Self.UserName),
		zap.Int("workers", cfg.PollWorkers),
	)
	poller := tgtransport.NewPoller(container.Bot, container.Dispatcher.Dispatch, cfg.PollWorkers, logger)
	if err := poller.Run(ctx); err != nil {
		logger.Error("Poller stopped with error", zap.Error(err))
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.Scheduler.Wait(waitCtx); err != nil {
		container.Scheduler.Flush()
	}
	logger.Info("Poller stopped")
}
