package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Updater is the long-polling side of the bot client
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler processes one update
type UpdateHandler func(ctx context.Context, update tgbotapi.Update) error

// Poller reads updates on one goroutine and dispatches them to a bounded set of workers
type Poller struct {
	bot     Updater
	handle  UpdateHandler
	workers int
	timeout int
	logger  *zap.Logger
}

// NewPoller creates a poller. workers bounds concurrent dispatches.
func NewPoller(bot Updater, handle UpdateHandler, workers int, logger *zap.Logger) *Poller {
	if workers <= 0 {
		workers = 1
	}
	return &Poller{bot: bot, handle: handle, workers: workers, timeout: 60, logger: logger}
}

// Run polls until ctx is cancelled, then waits for in-flight dispatches
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	updates := p.bot.GetUpdatesChan(cfg)

	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	p.logger.Info("Polling for Telegram updates", zap.Int("workers", p.workers))
	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			_ = g.Wait()
			p.logger.Info("Polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				if err := p.handle(ctx, update); err != nil {
					p.logger.Warn("Update handling failed", zap.Int("updateID", update.UpdateID), zap.Error(err))
				}
				return nil
			})
		}
	}
}
