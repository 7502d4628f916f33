package services

import (
	"context"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	"bettersaved/domain/events"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

// IngestionService is the entry point for every content event.
// It classifies the event and routes it to the single item path, the grouped path
// or the unsupported reply.
type IngestionService struct {
	classifier *Classifier
	resolver   *ResourceResolver
	saver      *ItemSaver
	aggregator *MediaGroupAggregator
	reporter   *StatusReporter
	profiles   ports.ProfileRepository
	limiter    ports.RateLimiter
	metrics    ports.Metrics
	clock      ports.Clock
	logger     *zap.Logger
}

// NewIngestionService creates a new ingestion service. limiter and metrics may be nil.
func NewIngestionService(
	classifier *Classifier,
	resolver *ResourceResolver,
	saver *ItemSaver,
	aggregator *MediaGroupAggregator,
	reporter *StatusReporter,
	profiles ports.ProfileRepository,
	limiter ports.RateLimiter,
	metrics ports.Metrics,
	clock ports.Clock,
	logger *zap.Logger,
) *IngestionService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &IngestionService{
		classifier: classifier,
		resolver:   resolver,
		saver:      saver,
		aggregator: aggregator,
		reporter:   reporter,
		profiles:   profiles,
		limiter:    limiter,
		metrics:    metrics,
		clock:      clock,
		logger:     logger,
	}
}

// Handle processes one inbound event. Every failure ends in a user facing message;
// the returned error only reports problems no message could describe.
func (s *IngestionService) Handle(ctx context.Context, event entities.InboundEvent) error {
	item := s.classifier.Classify(event)
	logger := s.logger.With(
		zap.String("userID", item.SourceUserID),
		zap.String("itemID", item.ItemID),
		zap.String("category", string(item.Category)),
	)
	if item.GroupID != "" {
		logger = logger.With(zap.String("groupID", item.GroupID))
	}
	logger.Debug("Inbound event classified", zap.String("payload", entities.Kind(event.Payload)))

	if item.Category == valueobjects.CategoryUnsupported {
		logger.Info("Unsupported content", zap.String("kind", item.UnsupportedKind))
		s.reporter.Unsupported(ctx, item)
		s.metrics.RecordIngestion(ctx, string(item.Category), OutcomeUnsupported, 0)
		return nil
	}

	if !s.admit(ctx, item, logger) {
		return nil
	}

	session, err := s.resolver.Resolve(ctx, item.SourceUserID)
	if err != nil {
		return s.handleResolveError(ctx, event, item, err, logger)
	}

	if item.IsGrouped() {
		s.aggregator.Accept(ctx, session, item)
		return nil
	}
	s.saveSingle(ctx, session, item)
	return nil
}

// admit applies the per-user rate limit. A limiter error lets the item through.
func (s *IngestionService) admit(ctx context.Context, item entities.ContentItem, logger *zap.Logger) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(ctx, item.SourceUserID)
	if err != nil {
		logger.Warn("Rate limiter unavailable, admitting item", zap.Error(err))
		return true
	}
	if allowed {
		return true
	}

	logger.Warn("Rate limit exceeded")
	s.metrics.RecordIngestion(ctx, string(item.Category), OutcomeRateLimited, 0)
	if item.IsGrouped() {
		// the group summary reports the rejected item
		s.aggregator.Fail(ctx, item, events.StageAdmission, pkgerrors.NewRateLimitError(item.SourceUserID))
		return false
	}
	s.reporter.RateLimited(ctx, item)
	return false
}

func (s *IngestionService) handleResolveError(
	ctx context.Context,
	event entities.InboundEvent,
	item entities.ContentItem,
	err error,
	logger *zap.Logger,
) error {
	switch {
	case pkgerrors.IsNotConnected(err):
		return s.promptConnect(ctx, event, item, logger)

	case pkgerrors.IsRecoveryFailed(err):
		logger.Error("Resource recovery failed", zap.Error(err))
		if item.IsGrouped() {
			if s.aggregator.Fail(ctx, item, events.StageResolve, err) {
				s.reporter.RecoveryFailed(ctx, item)
			}
			return nil
		}
		s.saver.RecordFailure(ctx, item, events.StageResolve, err)
		s.reporter.RecoveryFailed(ctx, item)
		return nil

	default:
		logger.Error("Failed to load profile", zap.Error(err))
		if item.IsGrouped() {
			s.aggregator.Fail(ctx, item, events.StageResolve, err)
			return err
		}
		s.saver.RecordFailure(ctx, item, events.StageResolve, err)
		return err
	}
}

// promptConnect shows the connect instruction once per profile.
// A sender without a profile gets one created so the flag can be recorded.
func (s *IngestionService) promptConnect(ctx context.Context, event entities.InboundEvent, item entities.ContentItem, logger *zap.Logger) error {
	profile, err := s.profiles.Get(ctx, item.SourceUserID)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			return pkgerrors.Wrap(err, "failed to load profile")
		}
		profile, err = entities.NewProfile(event.UserID, event.UserName, "", s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return pkgerrors.Wrap(err, "failed to create profile")
		}
		logger.Info("Profile created for unconnected sender")
	}

	if profile.ConnectMessageShown {
		logger.Debug("Storage not connected, instruction already shown")
		return nil
	}

	s.reporter.NotConnected(ctx, item)
	if err := s.profiles.MarkConnectMessageShown(ctx, item.SourceUserID); err != nil {
		return pkgerrors.Wrap(err, "failed to record connect message")
	}
	return nil
}

func (s *IngestionService) saveSingle(ctx context.Context, session *Session, item entities.ContentItem) {
	ref, err := s.reporter.Begin(ctx, item)
	if err != nil {
		s.logger.Warn("Failed to post status message", zap.String("userID", item.SourceUserID), zap.Error(err))
	}

	outcome := s.saver.Save(ctx, session, item)
	switch {
	case outcome.Saved():
		s.reporter.Succeeded(ctx, ref, item, outcome.Content)
	case pkgerrors.IsWriteFailed(outcome.Err):
		s.reporter.WriteFailed(ctx, ref, item, outcome.FileURL)
	default:
		s.reporter.Failed(ctx, ref, item)
	}
}
