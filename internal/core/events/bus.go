package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the fields every event shares. Concrete events embed it
// and keep their typed fields alongside Data.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// EventBus fans events out to in-process subscribers. The list, form and
// dashboard components publish on it and the CLI prints alerts from it.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{subs: map[string][]Handler{}, logger: logger}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.subs[eventType] = append(eb.subs[eventType], handler)
	n := len(eb.subs[eventType])
	eb.mu.Unlock()
	eb.logger.Debug("event handler registered", "event_type", eventType, "handlers", n)
}

// receivers lists the handlers for eventType followed by the wildcard ones.
func (eb *EventBus) receivers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	out := append([]Handler(nil), eb.subs[eventType]...)
	return append(out, eb.subs[AllEvents]...)
}

func (eb *EventBus) failed(event Event, err error) {
	eb.logger.Error("event handler failed", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
}

// Publish runs every handler on its own goroutine and does not wait.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	for _, h := range eb.receivers(event.EventType()) {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				eb.failed(event, err)
			}
		}(h)
	}
	return nil
}

// PublishSync runs handlers in subscription order and stops at the first error.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	for _, h := range eb.receivers(event.EventType()) {
		if err := h(ctx, event); err != nil {
			eb.failed(event, err)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}
