package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bettersaved/infrastructure/config"
	"bettersaved/infrastructure/di"
	"bettersaved/infrastructure/scheduling"
	tgtransport "bettersaved/infrastructure/telegram"
	tginterface "bettersaved/interfaces/telegram"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const drainTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	if err := tgtransport.NewCommandMenu(container.Bot).SetCommands(ctx, tginterface.Menu()); err != nil {
		logger.Warn("Failed to register command menu", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("mode", cfg.TelegramMode),
			zap.String("store", cfg.ProfileStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.TelegramMode == config.ModePolling {
		g.Go(func() error {
			poller := tgtransport.NewPoller(container.Bot, container.Dispatcher.Dispatch, cfg.PollWorkers, logger)
			return poller.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	drain(container.Scheduler, logger)
	logger.Info("Server stopped")
}

// drain lets deferred status updates finish, then runs whatever is still waiting
func drain(scheduler *scheduling.TimerScheduler, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := scheduler.Wait(ctx); err == nil {
		return
	}

	logger.Warn("Running deferred tasks early", zap.Int("pending", scheduler.Pending()))
	scheduler.Flush()
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), scheduling.DefaultTaskTimeout)
	defer cancelFlush()
	if err := scheduler.Wait(flushCtx); err != nil {
		logger.Error("Deferred tasks did not finish", zap.Error(err))
	}
}
