package aggregates

import (
	"time"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	"bettersaved/domain/events"
)

// MediaGroupState tracks the progress of one media group.
// It is not safe for concurrent use; the owner serializes access per group.
//
// Invariants: processed <= expected, seen never shrinks and finalized only
// ever transitions from false to true.
type MediaGroupState struct {
	groupID       string
	userID        string
	caption       string
	category      valueobjects.Category
	expected      int
	processed     int
	failed        int
	seen          map[string]struct{}
	finalized     bool
	statusMessage entities.MessageRef
	events        []events.DomainEvent
}

// NewMediaGroupState opens a group from its first observed item.
// The caption is fixed here and shared by every later item.
func NewMediaGroupState(first entities.ContentItem, caption string) *MediaGroupState {
	return &MediaGroupState{
		groupID:  first.GroupID,
		userID:   first.SourceUserID,
		caption:  caption,
		category: first.Category,
		expected: 1,
		seen:     map[string]struct{}{first.ItemID: {}},
	}
}

// Observe registers a later delivery. It returns false for an item that was already seen.
func (g *MediaGroupState) Observe(itemID string) bool {
	if _, ok := g.seen[itemID]; ok {
		return false
	}
	g.seen[itemID] = struct{}{}
	g.expected++
	return true
}

// RecordSuccess counts a completed item and reports whether finalization must now be scheduled
func (g *MediaGroupState) RecordSuccess() bool {
	if g.processed < g.expected {
		g.processed++
	}
	return g.tryFinalize()
}

// RecordFailure counts a failed item and reports whether finalization must now be scheduled
func (g *MediaGroupState) RecordFailure() bool {
	if g.processed+g.failed < g.expected {
		g.failed++
	}
	return g.tryFinalize()
}

// tryFinalize flips the finalized flag at most once
func (g *MediaGroupState) tryFinalize() bool {
	if g.finalized || g.processed+g.failed < g.expected {
		return false
	}
	g.finalized = true
	return true
}

// Close records the terminal transition and raises MediaGroupClosed
func (g *MediaGroupState) Close(now time.Time) {
	g.events = append(g.events, events.NewMediaGroupClosed(
		g.userID, g.groupID, g.UniqueItems(), g.processed, g.failed, now,
	))
}

// AttachStatusMessage stores the shared progress message
func (g *MediaGroupState) AttachStatusMessage(ref entities.MessageRef) {
	g.statusMessage = ref
}

// Getters

func (g *MediaGroupState) GroupID() string                    { return g.groupID }
func (g *MediaGroupState) Caption() string                    { return g.caption }
func (g *MediaGroupState) Category() valueobjects.Category    { return g.category }
func (g *MediaGroupState) ExpectedCount() int                 { return g.expected }
func (g *MediaGroupState) ProcessedCount() int                { return g.processed }
func (g *MediaGroupState) FailedCount() int                   { return g.failed }
func (g *MediaGroupState) Finalized() bool                    { return g.finalized }
func (g *MediaGroupState) StatusMessage() entities.MessageRef { return g.statusMessage }

// UniqueItems is the number of distinct items observed, the count reported on close
func (g *MediaGroupState) UniqueItems() int {
	return len(g.seen)
}

// HasSeen reports whether an item id was already observed
func (g *MediaGroupState) HasSeen(itemID string) bool {
	_, ok := g.seen[itemID]
	return ok
}

// GetUncommittedEvents returns events raised since the last commit
func (g *MediaGroupState) GetUncommittedEvents() []events.DomainEvent {
	return g.events
}

// MarkEventsAsCommitted clears the raised events
func (g *MediaGroupState) MarkEventsAsCommitted() {
	g.events = nil
}
