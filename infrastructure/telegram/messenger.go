package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// longest flood wait honoured inline before giving up
const maxRetryAfter = 5 * time.Second

// Messenger implements ports.Messenger on the Bot API
type Messenger struct {
	bot    BotAPI
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger
}

var _ ports.Messenger = (*Messenger)(nil)

// NewMessenger creates a new Messenger
func NewMessenger(bot BotAPI, logger *zap.Logger) *Messenger {
	return &Messenger{bot: bot, sleep: sleepCtx, logger: logger}
}

// Send posts a plain text message
func (m *Messenger) Send(ctx context.Context, chatID int64, text string) (entities.MessageRef, error) {
	return m.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// Reply posts a plain text message quoting replyTo
func (m *Messenger) Reply(ctx context.Context, chatID int64, replyTo int, text string) (entities.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	return m.send(ctx, msg)
}

// Edit replaces the text of a message. Unchanged or vanished messages are not errors.
func (m *Messenger) Edit(ctx context.Context, ref entities.MessageRef, text string) error {
	err := m.request(ctx, tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text))
	if isNotModified(err) || isMessageGone(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

// Delete removes a message. A message that is already gone is not an error.
func (m *Messenger) Delete(ctx context.Context, ref entities.MessageRef) error {
	err := m.request(ctx, tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	if isMessageGone(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (m *Messenger) send(ctx context.Context, msg tgbotapi.MessageConfig) (entities.MessageRef, error) {
	var sent tgbotapi.Message
	err := m.withFloodRetry(ctx, func() error {
		var err error
		sent, err = m.bot.Send(msg)
		return err
	})
	if err != nil {
		return entities.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return entities.MessageRef{ChatID: msg.ChatID, MessageID: sent.MessageID}, nil
}

func (m *Messenger) request(ctx context.Context, c tgbotapi.Chattable) error {
	return m.withFloodRetry(ctx, func() error {
		_, err := m.bot.Request(c)
		return err
	})
}

// withFloodRetry retries once when the Bot API asks to wait a short while
func (m *Messenger) withFloodRetry(ctx context.Context, call func() error) error {
	err := call()
	wait := retryAfter(err)
	if wait <= 0 || wait > maxRetryAfter {
		return err
	}

	m.logger.Debug("Telegram flood control, retrying", zap.Duration("wait", wait))
	if err := m.sleep(ctx, wait); err != nil {
		return err
	}
	return call()
}

func retryAfter(err error) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func isMessageGone(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message to edit not found") ||
		strings.Contains(msg, "message can't be deleted")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
