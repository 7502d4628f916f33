package ports

import (
	"context"
	"time"

	"bettersaved/domain/core/entities"
)

// Messenger sends and manages outbound chat messages.
// Edit and Delete must tolerate messages that are already gone or unchanged.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) (entities.MessageRef, error)
	Reply(ctx context.Context, chatID int64, replyTo int, text string) (entities.MessageRef, error)
	Edit(ctx context.Context, ref entities.MessageRef, text string) error
	Delete(ctx context.Context, ref entities.MessageRef) error
}

// ContentFetcher downloads the bytes behind an opaque file handle
type ContentFetcher interface {
	Fetch(ctx context.Context, file entities.FileRef) ([]byte, error)
}

// Task is a deferred unit of work
type Task func(ctx context.Context)

// Scheduler runs deferred tasks. Scheduled tasks cannot be cancelled.
type Scheduler interface {
	After(delay time.Duration, name string, task Task)
}

// Clock abstracts wall-clock time
type Clock interface {
	Now() time.Time
}

// SystemClock is the process wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time { return time.Now() }

// RateLimiter admits or rejects inbound submissions per key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
