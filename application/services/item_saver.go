package services

import (
	"context"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/events"

	"go.uber.org/zap"
)

// Ingestion outcomes recorded in metrics
const (
	OutcomeSaved       = "saved"
	OutcomePartial     = "partial"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"
	OutcomeRateLimited = "rate_limited"
)

// SaveOutcome describes how far an item got through upload and ledger write
type SaveOutcome struct {
	FileURL      string
	UpdatedRange string
	Content      string
	// Stage is empty on success, otherwise the stage that failed
	Stage string
	Err   error
}

// Saved reports whether both steps succeeded
func (o SaveOutcome) Saved() bool { return o.Err == nil }

// ItemSaver runs the upload and ledger steps for one item and publishes the result
type ItemSaver struct {
	pipeline  *UploadPipeline
	ledger    *LedgerWriter
	publisher ports.EventPublisher
	metrics   ports.Metrics
	clock     ports.Clock
	logger    *zap.Logger
}

// NewItemSaver creates a new item saver
func NewItemSaver(
	pipeline *UploadPipeline,
	ledger *LedgerWriter,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	logger *zap.Logger,
) *ItemSaver {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &ItemSaver{
		pipeline:  pipeline,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Save uploads the item when it carries content and appends its ledger row.
// Text items skip the upload step.
func (s *ItemSaver) Save(ctx context.Context, session *Session, item entities.ContentItem) SaveOutcome {
	start := s.clock.Now()
	logger := s.logger.With(
		zap.String("userID", item.SourceUserID),
		zap.String("itemID", item.ItemID),
		zap.String("groupID", item.GroupID),
		zap.String("category", string(item.Category)),
	)

	var outcome SaveOutcome
	if item.Category.IsAttachment() {
		uploaded, err := s.pipeline.Upload(ctx, session, item)
		if err != nil {
			logger.Error("Upload failed", zap.Error(err))
			outcome = SaveOutcome{Stage: events.StageUpload, Err: err}
			s.finish(ctx, item, outcome, start)
			return outcome
		}
		outcome.FileURL = uploaded.FileURL
	}

	appended, err := s.ledger.AppendRow(ctx, session, item, outcome.FileURL)
	if err != nil {
		logger.Error("Ledger append failed", zap.String("fileURL", outcome.FileURL), zap.Error(err))
		outcome.Stage = events.StageLedger
		outcome.Err = err
		s.finish(ctx, item, outcome, start)
		return outcome
	}

	outcome.UpdatedRange = appended.UpdatedRange
	outcome.Content = appended.Row.Content
	logger.Info("Item saved", zap.String("range", appended.UpdatedRange))
	s.finish(ctx, item, outcome, start)
	return outcome
}

// RecordFailure publishes a failure that happened before the save started
func (s *ItemSaver) RecordFailure(ctx context.Context, item entities.ContentItem, stage string, err error) {
	s.finish(ctx, item, SaveOutcome{Stage: stage, Err: err}, s.clock.Now())
}

func (s *ItemSaver) finish(ctx context.Context, item entities.ContentItem, outcome SaveOutcome, start time.Time) {
	now := s.clock.Now()
	label := item.Category.Label()

	var event events.DomainEvent
	metric := OutcomeSaved
	switch {
	case outcome.Saved():
		event = events.NewItemSaved(item.SourceUserID, item.ItemID, item.GroupID, label, outcome.FileURL, outcome.UpdatedRange, now)
	case outcome.FileURL != "":
		metric = OutcomePartial
		event = events.NewItemFailed(item.SourceUserID, item.ItemID, item.GroupID, label, outcome.Stage, outcome.Err.Error(), outcome.FileURL, now)
	default:
		metric = OutcomeFailed
		event = events.NewItemFailed(item.SourceUserID, item.ItemID, item.GroupID, label, outcome.Stage, outcome.Err.Error(), "", now)
	}

	s.metrics.RecordIngestion(ctx, string(item.Category), metric, now.Sub(start))
	publish(ctx, s.publisher, s.logger, event)
}

// publish sends events and only logs failures; publishing never fails ingestion
func publish(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts ...events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	var err error
	if len(evts) == 1 {
		err = publisher.Publish(ctx, evts[0])
	} else {
		err = publisher.PublishBatch(ctx, evts)
	}
	if err != nil {
		logger.Warn("Failed to publish events",
			zap.String("eventType", evts[0].GetEventType()),
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}
