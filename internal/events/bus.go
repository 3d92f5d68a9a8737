package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iudanet/entrypack/internal/models"
)

// Listener получает событие изменения данных. Вызывается синхронно.
type Listener func(event models.DataChangeEvent)

// Reviewer re-validates the user's entry preparation records after a data
// change; implemented by the EntryInfo state machine.
type Reviewer interface {
	ReviewDataChange(ctx context.Context, event models.DataChangeEvent) error
}

type registration struct {
	fn Listener
	id int
}

// Bus is the synchronous data-change bus. The facade triggers it after every
// successful write; listeners run in registration order, and a panicking
// listener never prevents the rest from running.
type Bus struct {
	logger    *slog.Logger
	reviewer  Reviewer
	mu        sync.Mutex
	listeners []registration
	nextID    int
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// SetReviewer attaches the EntryInfo checker invoked after every event.
func (b *Bus) SetReviewer(r Reviewer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reviewer = r
}

// AddDataChangeListener registers a listener and returns its unsubscribe
// function. Unsubscribing removes exactly that registration: the same
// function registered twice keeps its other registration.
func (b *Bus) AddDataChangeListener(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, registration{fn: fn, id: id})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, reg := range b.listeners {
			if reg.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// TriggerDataChangeEvent notifies every listener synchronously in
// registration order, then hands the event to the reviewer, which walks the
// user's entry infos and supersedes stale submissions. A reviewer error is
// logged and returned; listener panics are isolated per listener.
func (b *Bus) TriggerDataChangeEvent(ctx context.Context, event models.DataChangeEvent) error {
	b.mu.Lock()
	listeners := make([]registration, len(b.listeners))
	copy(listeners, b.listeners)
	reviewer := b.reviewer
	b.mu.Unlock()

	for _, reg := range listeners {
		b.notify(reg, event)
	}

	if reviewer == nil {
		return nil
	}
	if err := reviewer.ReviewDataChange(ctx, event); err != nil {
		b.logger.Error("entry info review failed",
			"type", event.Type,
			"user_id", event.UserID,
			"error", err,
		)
		return err
	}
	return nil
}

// notify вызывает одного слушателя, изолируя его панику
func (b *Bus) notify(reg registration, event models.DataChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("data change listener panicked",
				"listener_id", reg.id,
				"type", event.Type,
				"panic", r,
			)
		}
	}()
	reg.fn(event)
}
