package ports

import (
	"context"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/events"
)

// ProfileRepository defines the interface for user profile persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ProfileRepository interface {
	// Get retrieves a profile, returning a NOT_FOUND AppError when absent
	Get(ctx context.Context, userID string) (*entities.Profile, error)

	// Upsert persists the whole profile record in one write
	Upsert(ctx context.Context, profile *entities.Profile) error

	// SetCredential stores the storage credential for a user
	SetCredential(ctx context.Context, userID, credential string) error

	// ClearCredential removes the storage credential; a missing profile is not an error
	ClearCredential(ctx context.Context, userID string) error

	// SetResources stores resolved storage handles without touching the rest of the record.
	// It fails with NOT_CONNECTED when the profile is gone or has no credential.
	SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error

	// MarkConnectMessageShown records that the connect instruction was shown
	MarkConnectMessageShown(ctx context.Context, userID string) error

	// Delete removes the profile; a missing profile is not an error
	Delete(ctx context.Context, userID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
