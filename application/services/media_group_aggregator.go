package services

import (
	"context"
	"sync"

	"bettersaved/application/ports"
	"bettersaved/domain/config"
	"bettersaved/domain/core/aggregates"
	"bettersaved/domain/core/entities"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
)

type groupEntry struct {
	mu      sync.Mutex
	state   *aggregates.MediaGroupState
	evicted bool
}

// MediaGroupAggregator coordinates the items of media groups that arrive as separate events.
//
// The table lock only guards membership. Each group has its own mutex that serializes
// counter updates and status edits for that group; different groups never contend.
type MediaGroupAggregator struct {
	mu     sync.Mutex
	groups map[string]*groupEntry

	saver     *ItemSaver
	reporter  *StatusReporter
	scheduler ports.Scheduler
	publisher ports.EventPublisher
	metrics   ports.Metrics
	clock     ports.Clock
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewMediaGroupAggregator creates a new aggregator
func NewMediaGroupAggregator(
	saver *ItemSaver,
	reporter *StatusReporter,
	scheduler ports.Scheduler,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	clock ports.Clock,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MediaGroupAggregator {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &MediaGroupAggregator{
		groups:    make(map[string]*groupEntry),
		saver:     saver,
		reporter:  reporter,
		scheduler: scheduler,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

func groupKey(item entities.ContentItem) string {
	return item.SourceUserID + "/" + item.GroupID
}

// Accept processes one grouped item. A repeated delivery of an item already seen in
// its group is a no-op and reports false.
func (a *MediaGroupAggregator) Accept(ctx context.Context, session *Session, item entities.ContentItem) bool {
	entry, accepted, _ := a.admit(ctx, item)
	if !accepted {
		a.logger.Debug("Duplicate media group item ignored",
			zap.String("groupID", item.GroupID),
			zap.String("itemID", item.ItemID),
		)
		return false
	}

	entry.mu.Lock()
	item.Caption = entry.state.Caption()
	entry.mu.Unlock()

	outcome := a.saver.Save(ctx, session, item)

	entry.mu.Lock()
	var finalize bool
	if outcome.Saved() {
		finalize = entry.state.RecordSuccess()
		a.reporter.GroupProgress(ctx, entry.state.StatusMessage(), entry.state.Category(), entry.state.ProcessedCount())
	} else {
		finalize = entry.state.RecordFailure()
	}
	entry.mu.Unlock()

	if !outcome.Saved() && pkgerrors.IsWriteFailed(outcome.Err) {
		a.reporter.GroupWriteFailed(ctx, item, outcome.FileURL)
	}

	if finalize {
		a.scheduleFinalize(item)
	}
	return true
}

// Fail counts an item that could not even start saving, so the group is never stranded.
// It reports true when the item opened its group.
func (a *MediaGroupAggregator) Fail(ctx context.Context, item entities.ContentItem, stage string, err error) bool {
	entry, accepted, opened := a.admit(ctx, item)
	if !accepted {
		return false
	}
	a.saver.RecordFailure(ctx, item, stage, err)

	entry.mu.Lock()
	finalize := entry.state.RecordFailure()
	entry.mu.Unlock()

	if finalize {
		a.scheduleFinalize(item)
	}
	return opened
}

// admit registers the item in its group, creating the group on first sight.
// The first item also posts the shared status message and reports opened.
func (a *MediaGroupAggregator) admit(ctx context.Context, item entities.ContentItem) (entry *groupEntry, accepted, opened bool) {
	key := groupKey(item)
	for {
		a.mu.Lock()
		existing, ok := a.groups[key]
		if !ok {
			entry = &groupEntry{state: aggregates.NewMediaGroupState(item, item.Caption)}
			entry.mu.Lock()
			a.groups[key] = entry
			a.mu.Unlock()

			ref, err := a.reporter.BeginGroup(ctx, item)
			if err != nil {
				a.logger.Warn("Failed to post media group status", zap.String("groupID", item.GroupID), zap.Error(err))
			}
			entry.state.AttachStatusMessage(ref)
			entry.mu.Unlock()

			a.logger.Info("Media group opened",
				zap.String("userID", item.SourceUserID),
				zap.String("groupID", item.GroupID),
			)
			return entry, true, true
		}
		a.mu.Unlock()

		existing.mu.Lock()
		if existing.evicted {
			// closed between lookup and lock; a late item opens a new group
			existing.mu.Unlock()
			continue
		}
		accepted = existing.state.Observe(item.ItemID)
		existing.mu.Unlock()
		return existing, accepted, false
	}
}

func (a *MediaGroupAggregator) scheduleFinalize(item entities.ContentItem) {
	key := groupKey(item)
	a.logger.Debug("Media group complete, finalizing after delay",
		zap.String("groupID", item.GroupID),
		zap.Duration("delay", a.cfg.GroupFinalizeDelay),
	)
	a.scheduler.After(a.cfg.GroupFinalizeDelay, "finalize-group", func(ctx context.Context) {
		a.finalize(ctx, key)
	})
}

// finalize writes the summary and evicts the group. It is a no-op for a group that is gone.
func (a *MediaGroupAggregator) finalize(ctx context.Context, key string) {
	a.mu.Lock()
	entry, ok := a.groups[key]
	if ok {
		delete(a.groups, key)
	}
	a.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	entry.evicted = true
	state := entry.state
	state.Close(a.clock.Now())
	unique, failed := state.UniqueItems(), state.FailedCount()
	a.reporter.GroupFinished(ctx, state.StatusMessage(), state.Category(), unique, failed)
	evts := state.GetUncommittedEvents()
	state.MarkEventsAsCommitted()
	entry.mu.Unlock()

	a.logger.Info("Media group closed",
		zap.String("groupID", state.GroupID()),
		zap.Int("uniqueItems", unique),
		zap.Int("processed", state.ProcessedCount()),
		zap.Int("failed", failed),
	)
	a.metrics.RecordGroup(ctx, unique, failed)
	publish(ctx, a.publisher, a.logger, evts...)
}

// OpenGroups returns the number of groups not yet finalized
func (a *MediaGroupAggregator) OpenGroups() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.groups)
}
