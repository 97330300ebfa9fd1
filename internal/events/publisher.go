package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher captures notifications emitted by domain logic. Implementations
// must tolerate being called on every mutating operation; delivery is
// best-effort by contract.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store is an append-only sink used by the memory publisher and the worker.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// stamp fills in the generated fields an emitter usually leaves blank.
func stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}

// MemoryStore keeps events in memory for tests and dev mode.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ByTopic returns captured events for a topic, oldest first.
func (s *MemoryStore) ByTopic(topic Topic) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range s.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// All returns every captured event, oldest first.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// StorePublisher appends stamped events straight to a store. It is the
// default publisher in dev mode and in tests.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	return p.store.Append(ctx, stamp(event))
}

// ChannelPublisher hands events to a background worker. Emission never
// blocks; when the inbox is full the event is dropped, which the sink
// contract permits.
type ChannelPublisher struct {
	inbox chan<- Event
}

func NewChannelPublisher(inbox chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	select {
	case p.inbox <- stamp(event):
	default:
	}
	return nil
}

// Worker consumes events from a channel and forwards them to a store. It
// keeps background processing testable without wiring queue implementations.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
