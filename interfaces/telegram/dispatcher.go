// Package telegram turns chat updates into commands, queries and ingestion calls.
package telegram

import (
	"context"
	"time"

	"bettersaved/domain/core/entities"
	tgtransport "bettersaved/infrastructure/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Ingestor saves one inbound event
type Ingestor interface {
	Handle(ctx context.Context, event entities.InboundEvent) error
}

// UpdateObserver counts dispatched updates by kind
type UpdateObserver interface {
	ObserveUpdate(kind string)
}

// Dispatcher routes every update either to the command router or to ingestion
type Dispatcher struct {
	router   *CommandRouter
	ingestor Ingestor
	observer UpdateObserver
	now      func() time.Time
	logger   *zap.Logger
}

// NewDispatcher creates a new Dispatcher. observer may be nil.
func NewDispatcher(router *CommandRouter, ingestor Ingestor, observer UpdateObserver, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		router:   router,
		ingestor: ingestor,
		observer: observer,
		now:      time.Now,
		logger:   logger,
	}
}

// Dispatch handles one update. Updates without a message and sender are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg != nil && msg.From != nil && msg.Chat != nil && msg.IsCommand() {
		d.observe("command")
		return d.router.Route(ctx, msg)
	}

	event, ok := tgtransport.MapUpdate(update, d.now())
	if !ok {
		d.observe("ignored")
		d.logger.Debug("Ignoring update", zap.Int("updateID", update.UpdateID))
		return nil
	}

	d.observe(entities.Kind(event.Payload))
	return d.ingestor.Handle(ctx, event)
}

func (d *Dispatcher) observe(kind string) {
	if d.observer != nil {
		d.observer.ObserveUpdate(kind)
	}
}
