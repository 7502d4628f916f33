package services

import (
	"context"
	"fmt"
	"strings"

	"bettersaved/application/ports"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"

	"go.uber.org/zap"
)

// Status message templates
const (
	msgSavingText      = "💾 Saving your message..."
	msgSavedText       = "✅ Message saved to your BetterSaved spreadsheet!\n\nThis message will disappear in a few seconds."
	msgTextFailed      = "❌ Failed to save your message. Please try again later."
	msgSavingItem      = "💾 Saving your %s..."
	msgSavedItem       = "✅ %s saved to your Google Drive and logged in your spreadsheet!\n\nCaption: %s\n\nThis message will disappear in a few seconds."
	msgItemFailed      = "❌ Failed to save your %s. Please try again later."
	msgWriteFailed     = "⚠️ %s was saved to Google Drive but failed to log in spreadsheet.\nURL: %s"
	msgGroupProcessing = "💾 Processing your %s..."
	msgGroupProgress   = "💾 Saved %d %s(s)..."
	msgGroupSaved      = "✅ All %d %s saved to your Google Drive and logged in your spreadsheet!\n\nThis message will disappear in a few seconds."
	msgGroupPartial    = "⚠️ Saved %d of %d %s. %d could not be saved, please send them again."
	msgNotConnected    = "If you want your messages to be saved to your Google Drive, you need to connect your Google Drive account first.\n\nUse /connect_drive to get started.\n\nYou can still use this without a Drive connection just as you would your regular Saved Messages."
	msgRecoveryFailed  = "⚠️ I couldn't find your BetterSaved folder or spreadsheet. Please use /fix_spreadsheet to repair your setup."
	msgUnsupported     = "I'm a very young bot and I can't deal with %s attachments yet. \n\nIn the future, I'll be able to save %s files to your Google Drive, but for now, please send other content."
	msgRateLimited     = "⏳ You're sending things faster than I can save them. Please wait a moment and try again."
)

// StatusReporter turns pipeline outcomes into chat messages.
// Edit and delete failures are logged and never returned.
type StatusReporter struct {
	messenger ports.Messenger
	scheduler ports.Scheduler
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewStatusReporter creates a new status reporter
func NewStatusReporter(messenger ports.Messenger, scheduler ports.Scheduler, cfg *config.DomainConfig, logger *zap.Logger) *StatusReporter {
	return &StatusReporter{
		messenger: messenger,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger,
	}
}

// ItemNoun is the user facing name of a single item of the category
func ItemNoun(category valueobjects.Category) string {
	if category == valueobjects.CategoryImage {
		return "Photo"
	}
	return category.Label()
}

// GroupNoun is the plural used for a media group, decided by its first item
func GroupNoun(category valueobjects.Category) string {
	if category == valueobjects.CategoryImage {
		return "photos"
	}
	return "files"
}

func singular(plural string) string {
	return strings.TrimSuffix(plural, "s")
}

// Begin posts the progress message for a single item
func (r *StatusReporter) Begin(ctx context.Context, item entities.ContentItem) (entities.MessageRef, error) {
	text := msgSavingText
	if item.Category != valueobjects.CategoryText {
		text = fmt.Sprintf(msgSavingItem, strings.ToLower(ItemNoun(item.Category)))
	}
	return r.messenger.Reply(ctx, item.ChatID, item.MessageID, text)
}

// Succeeded confirms a saved item in place and schedules the confirmation for deletion
func (r *StatusReporter) Succeeded(ctx context.Context, ref entities.MessageRef, item entities.ContentItem, content string) {
	text := msgSavedText
	if item.Category != valueobjects.CategoryText {
		text = fmt.Sprintf(msgSavedItem, ItemNoun(item.Category), content)
	}
	r.edit(ctx, ref, text)
	r.ScheduleDelete(ref)
}

// Failed reports an item that could not be saved
func (r *StatusReporter) Failed(ctx context.Context, ref entities.MessageRef, item entities.ContentItem) {
	text := msgTextFailed
	if item.Category != valueobjects.CategoryText {
		text = fmt.Sprintf(msgItemFailed, strings.ToLower(ItemNoun(item.Category)))
	}
	r.edit(ctx, ref, text)
}

// WriteFailed reports an upload whose ledger row could not be written. The link is always shown.
func (r *StatusReporter) WriteFailed(ctx context.Context, ref entities.MessageRef, item entities.ContentItem, fileURL string) {
	if item.Category == valueobjects.CategoryText {
		r.edit(ctx, ref, msgTextFailed)
		return
	}
	r.edit(ctx, ref, fmt.Sprintf(msgWriteFailed, ItemNoun(item.Category), fileURL))
}

// GroupWriteFailed reports a grouped item whose ledger row failed in a message of its own,
// leaving the shared progress message untouched
func (r *StatusReporter) GroupWriteFailed(ctx context.Context, item entities.ContentItem, fileURL string) {
	r.reply(ctx, item.ChatID, item.MessageID, fmt.Sprintf(msgWriteFailed, ItemNoun(item.Category), fileURL))
}

// BeginGroup posts the shared progress message of a media group
func (r *StatusReporter) BeginGroup(ctx context.Context, first entities.ContentItem) (entities.MessageRef, error) {
	return r.messenger.Reply(ctx, first.ChatID, first.MessageID, fmt.Sprintf(msgGroupProcessing, GroupNoun(first.Category)))
}

// GroupProgress updates the shared message with the running count
func (r *StatusReporter) GroupProgress(ctx context.Context, ref entities.MessageRef, category valueobjects.Category, processed int) {
	r.edit(ctx, ref, fmt.Sprintf(msgGroupProgress, processed, singular(GroupNoun(category))))
}

// GroupFinished writes the final summary. A clean group is deleted after a delay,
// a partial one stays visible.
func (r *StatusReporter) GroupFinished(ctx context.Context, ref entities.MessageRef, category valueobjects.Category, unique, failed int) {
	noun := GroupNoun(category)
	if failed == 0 {
		r.edit(ctx, ref, fmt.Sprintf(msgGroupSaved, unique, noun))
		r.ScheduleDelete(ref)
		return
	}
	r.edit(ctx, ref, fmt.Sprintf(msgGroupPartial, unique-failed, unique, noun, failed))
}

// NotConnected sends the connect instruction
func (r *StatusReporter) NotConnected(ctx context.Context, item entities.ContentItem) {
	r.reply(ctx, item.ChatID, item.MessageID, msgNotConnected)
}

// RecoveryFailed tells the user to repair their setup
func (r *StatusReporter) RecoveryFailed(ctx context.Context, item entities.ContentItem) {
	r.reply(ctx, item.ChatID, item.MessageID, msgRecoveryFailed)
}

// Unsupported answers content the bot cannot store
func (r *StatusReporter) Unsupported(ctx context.Context, item entities.ContentItem) {
	kind := item.UnsupportedKind
	if kind == "" {
		kind = UnknownKind
	}
	r.reply(ctx, item.ChatID, item.MessageID, fmt.Sprintf(msgUnsupported, kind, kind))
}

// RateLimited asks the user to slow down
func (r *StatusReporter) RateLimited(ctx context.Context, item entities.ContentItem) {
	r.reply(ctx, item.ChatID, item.MessageID, msgRateLimited)
}

// ScheduleDelete removes a message after the configured delay without blocking the caller
func (r *StatusReporter) ScheduleDelete(ref entities.MessageRef) {
	if ref.IsZero() {
		return
	}
	r.scheduler.After(r.cfg.MessageDeleteDelay, "delete-message", func(ctx context.Context) {
		if err := r.messenger.Delete(ctx, ref); err != nil {
			r.logger.Debug("Status message already gone",
				zap.Int64("chatID", ref.ChatID),
				zap.Int("messageID", ref.MessageID),
				zap.Error(err),
			)
		}
	})
}

func (r *StatusReporter) edit(ctx context.Context, ref entities.MessageRef, text string) {
	if ref.IsZero() {
		return
	}
	if err := r.messenger.Edit(ctx, ref, text); err != nil {
		r.logger.Warn("Failed to edit status message",
			zap.Int64("chatID", ref.ChatID),
			zap.Int("messageID", ref.MessageID),
			zap.Error(err),
		)
	}
}

func (r *StatusReporter) reply(ctx context.Context, chatID int64, replyTo int, text string) {
	if _, err := r.messenger.Reply(ctx, chatID, replyTo, text); err != nil {
		r.logger.Warn("Failed to send reply", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
