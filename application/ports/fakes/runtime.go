package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/events"
)

type pendingTask struct {
	due  time.Duration
	name string
	task ports.Task
}

// Scheduler collects deferred tasks and runs them only when the test says so
type Scheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	pending []pendingTask
	names   []string
}

// NewScheduler creates a manual scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// After records a task due after delay from the current virtual time
func (s *Scheduler) After(delay time.Duration, name string, task ports.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingTask{due: s.elapsed + delay, name: name, task: task})
	s.names = append(s.names, name)
}

// Pending returns how many tasks are waiting
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Scheduled returns the names of every task ever scheduled
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Advance moves virtual time forward and runs every task that became due, in due order.
// Tasks scheduled while running are picked up if they also fall due.
func (s *Scheduler) Advance(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	target := s.elapsed + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].due < s.pending[j].due })
		if len(s.pending) == 0 || s.pending[0].due > target {
			s.elapsed = target
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.elapsed = next.due
		s.mu.Unlock()

		next.task(ctx)
	}
}

// Sent is one outbound message recorded by Messenger
type Sent struct {
	Ref  entities.MessageRef
	Text string
}

// Messenger records outbound messages and their edits
type Messenger struct {
	mu      sync.Mutex
	nextID  int
	texts   map[entities.MessageRef]string
	Sent    []Sent
	Edits   []Sent
	Deleted []entities.MessageRef

	DeleteErr error
}

// NewMessenger creates a recording messenger
func NewMessenger() *Messenger {
	return &Messenger{texts: make(map[entities.MessageRef]string)}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, text string) (entities.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ref := entities.MessageRef{ChatID: chatID, MessageID: m.nextID}
	m.texts[ref] = text
	m.Sent = append(m.Sent, Sent{Ref: ref, Text: text})
	return ref, nil
}

func (m *Messenger) Reply(ctx context.Context, chatID int64, replyTo int, text string) (entities.MessageRef, error) {
	return m.Send(ctx, chatID, text)
}

func (m *Messenger) Edit(ctx context.Context, ref entities.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[ref] = text
	m.Edits = append(m.Edits, Sent{Ref: ref, Text: text})
	return nil
}

func (m *Messenger) Delete(ctx context.Context, ref entities.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.texts, ref)
	m.Deleted = append(m.Deleted, ref)
	return nil
}

// Text returns the current text of a message, or "" when deleted
func (m *Messenger) Text(ref entities.MessageRef) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts[ref]
}

// AllTexts returns every text ever sent or edited in order
func (m *Messenger) AllTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		out = append(out, s.Text)
	}
	for _, e := range m.Edits {
		out = append(out, e.Text)
	}
	return out
}

// Fetcher returns fixed bytes for any handle
type Fetcher struct {
	mu      sync.Mutex
	Content []byte
	Err     error
	Fetched []entities.FileRef
}

func (f *Fetcher) Fetch(ctx context.Context, file entities.FileRef) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetched = append(f.Fetched, file)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Content == nil {
		return []byte("bytes:" + file.ID), nil
	}
	return f.Content, nil
}

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	Events []events.DomainEvent
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *Publisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evts...)
	return nil
}

// OfType returns the recorded events with a given type name
func (p *Publisher) OfType(eventType string) []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.DomainEvent
	for _, e := range p.Events {
		if e.GetEventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
