package scheduling

import (
	"context"
	"sync"
	"time"

	"bettersaved/application/ports"

	"go.uber.org/zap"
)

// DefaultTaskTimeout bounds a single deferred task
const DefaultTaskTimeout = 2 * time.Minute

type timerEntry struct {
	name  string
	task  ports.Task
	timer *time.Timer
}

// TimerScheduler runs deferred tasks on time.AfterFunc and tracks them until they finish.
// Tasks run on a context detached from the request that scheduled them.
type TimerScheduler struct {
	base    context.Context
	timeout time.Duration
	logger  *zap.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*timerEntry
}

var _ ports.Scheduler = (*TimerScheduler)(nil)

// NewTimerScheduler creates a scheduler whose tasks derive their context from base
func NewTimerScheduler(base context.Context, timeout time.Duration, logger *zap.Logger) *TimerScheduler {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &TimerScheduler{
		base:    base,
		timeout: timeout,
		logger:  logger,
		pending: make(map[uint64]*timerEntry),
	}
}

// After runs task once delay has elapsed
func (s *TimerScheduler) After(delay time.Duration, name string, task ports.Task) {
	s.wg.Add(1)

	s.mu.Lock()
	s.seq++
	id := s.seq
	entry := &timerEntry{name: name, task: task}
	s.pending[id] = entry
	entry.timer = time.AfterFunc(delay, func() { s.run(id, entry) })
	s.mu.Unlock()
}

// Flush fires every waiting task now instead of at its due time
func (s *TimerScheduler) Flush() {
	s.mu.Lock()
	due := make(map[uint64]*timerEntry, len(s.pending))
	for id, e := range s.pending {
		due[id] = e
	}
	s.mu.Unlock()

	for id, e := range due {
		if e.timer.Stop() {
			go s.run(id, e)
		}
	}
}

// Wait blocks until every scheduled task has finished or ctx is done
func (s *TimerScheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Deferred tasks still running at shutdown", zap.Int("pending", s.Pending()))
		return ctx.Err()
	}
}

// Pending returns the number of tasks that have not started yet
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *TimerScheduler) run(id uint64, e *timerEntry) {
	defer s.wg.Done()

	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Deferred task panicked", zap.String("task", e.name), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	start := time.Now()
	e.task(ctx)
	s.logger.Debug("Deferred task finished", zap.String("task", e.name), zap.Duration("took", time.Since(start)))
}
