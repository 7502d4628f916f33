package services

import (
	"context"
	"fmt"
	"strings"

	"bettersaved/application/ports"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

// ForwardedLabel replaces the None category on forwarded rows
const ForwardedLabel = "Forwarded"

// AppendResult is the outcome of a ledger append
type AppendResult struct {
	UpdatedRange string
	Row          entities.LedgerRow
}

// LedgerWriter appends one normalized row per saved item
type LedgerWriter struct {
	clock  ports.Clock
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewLedgerWriter creates a new ledger writer
func NewLedgerWriter(clock ports.Clock, cfg *config.DomainConfig, logger *zap.Logger) *LedgerWriter {
	return &LedgerWriter{clock: clock, cfg: cfg, logger: logger}
}

// BuildRow normalizes an item into a ledger row
func (w *LedgerWriter) BuildRow(item entities.ContentItem, fileURL string) entities.LedgerRow {
	row := entities.LedgerRow{
		Timestamp: w.clock.Now(),
		Source:    w.cfg.SourceLiteral,
		Category:  item.Category.Label(),
		Content:   rowContent(item),
		Link:      fileURL,
	}
	if item.Category == valueobjects.CategoryText {
		row.Category = valueobjects.NoneLabel
		row.Link = ""
	}

	if item.IsForwarded {
		from := strings.TrimSpace(item.ForwardedFrom)
		if from != "" {
			row.Source = "Forwarded from " + from
			row.ForwardedFrom = from
		} else {
			row.Source = "Forwarded message"
		}
		if row.Category == valueobjects.NoneLabel {
			row.Category = ForwardedLabel
		}
	}
	return row
}

// AppendRow writes the row for item. A failure is reported as WRITE_FAILED.
func (w *LedgerWriter) AppendRow(ctx context.Context, session *Session, item entities.ContentItem, fileURL string) (*AppendResult, error) {
	row := w.BuildRow(item, fileURL)
	ledgerID := session.Resources.LedgerID

	updated, err := session.Workspace.AppendRow(ctx, ledgerID, w.cfg.LedgerSheetName, row.Values(w.cfg.LedgerTimestampLayout))
	if err != nil {
		return nil, pkgerrors.NewWriteFailedError(ledgerID, err)
	}

	w.logger.Debug("Ledger row appended",
		zap.String("userID", item.SourceUserID),
		zap.String("itemID", item.ItemID),
		zap.String("range", updated),
	)
	return &AppendResult{UpdatedRange: updated, Row: row}, nil
}

func rowContent(item entities.ContentItem) string {
	if item.Category == valueobjects.CategoryText {
		return item.Text
	}
	if item.HasCaption() {
		return item.Caption
	}
	return Placeholder(item.Category)
}

// Placeholder is the bracketed content written when an attachment has no caption
func Placeholder(category valueobjects.Category) string {
	return fmt.Sprintf("<%s>", category.Label())
}
