package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, ts time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   ts,
		Version:     1,
	}
}

// Event type names published on the bus
const (
	TypeItemSaved            = "item.saved"
	TypeItemFailed           = "item.failed"
	TypeMediaGroupClosed     = "media_group.closed"
	TypeResourcesProvisioned = "resources.provisioned"
)

// Item Events

// ItemSaved is raised when an item has been uploaded and logged
type ItemSaved struct {
	BaseEvent
	UserID       string `json:"user_id"`
	ItemID       string `json:"item_id"`
	GroupID      string `json:"group_id,omitempty"`
	Category     string `json:"category"`
	FileURL      string `json:"file_url,omitempty"`
	UpdatedRange string `json:"updated_range"`
}

// NewItemSaved creates an ItemSaved event
func NewItemSaved(userID, itemID, groupID, category, fileURL, updatedRange string, ts time.Time) ItemSaved {
	return ItemSaved{
		BaseEvent:    newBase(userID, TypeItemSaved, ts),
		UserID:       userID,
		ItemID:       itemID,
		GroupID:      groupID,
		Category:     category,
		FileURL:      fileURL,
		UpdatedRange: updatedRange,
	}
}

// Failure stages reported by ItemFailed
const (
	StageAdmission = "admission"
	StageResolve   = "resolve"
	StageUpload    = "upload"
	StageLedger    = "ledger"
)

// ItemFailed is raised when an item could not be fully saved.
// FileURL is set when the upload succeeded but the ledger write did not.
type ItemFailed struct {
	BaseEvent
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id"`
	GroupID  string `json:"group_id,omitempty"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
	FileURL  string `json:"file_url,omitempty"`
}

// NewItemFailed creates an ItemFailed event
func NewItemFailed(userID, itemID, groupID, category, stage, reason, fileURL string, ts time.Time) ItemFailed {
	return ItemFailed{
		BaseEvent: newBase(userID, TypeItemFailed, ts),
		UserID:    userID,
		ItemID:    itemID,
		GroupID:   groupID,
		Category:  category,
		Stage:     stage,
		Reason:    reason,
		FileURL:   fileURL,
	}
}

// Media Group Events

// MediaGroupClosed is raised when a media group has been finalized and evicted
type MediaGroupClosed struct {
	BaseEvent
	UserID      string `json:"user_id"`
	GroupID     string `json:"group_id"`
	UniqueItems int    `json:"unique_items"`
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
}

// NewMediaGroupClosed creates a MediaGroupClosed event
func NewMediaGroupClosed(userID, groupID string, unique, processed, failed int, ts time.Time) MediaGroupClosed {
	return MediaGroupClosed{
		BaseEvent:   newBase(groupID, TypeMediaGroupClosed, ts),
		UserID:      userID,
		GroupID:     groupID,
		UniqueItems: unique,
		Processed:   processed,
		Failed:      failed,
	}
}

// Resource Events

// Provisioning modes reported by ResourcesProvisioned
const (
	ProvisionRecovered     = "recovered"
	ProvisionLedgerCreated = "ledger_created"
	ProvisionCreated       = "created"
)

// ResourcesProvisioned is raised when the resolver had to search or create remote resources
type ResourcesProvisioned struct {
	BaseEvent
	UserID       string `json:"user_id"`
	RootFolderID string `json:"root_folder_id"`
	LedgerID     string `json:"ledger_id"`
	Mode         string `json:"mode"`
}

// NewResourcesProvisioned creates a ResourcesProvisioned event
func NewResourcesProvisioned(userID, rootFolderID, ledgerID, mode string, ts time.Time) ResourcesProvisioned {
	return ResourcesProvisioned{
		BaseEvent:    newBase(userID, TypeResourcesProvisioned, ts),
		UserID:       userID,
		RootFolderID: rootFolderID,
		LedgerID:     ledgerID,
		Mode:         mode,
	}
}
