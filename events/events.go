package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"chinchiro/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeSessionPhase  EventType = "session_phase_change"
	EventTypeRoundSettled  EventType = "round_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID int64
	Delta  int64
	Kind   models.TransactionKind
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// SessionPhaseEvent represents a session lifecycle transition
type SessionPhaseEvent struct {
	ChannelID int64
	HostID    int64
	OldPhase  models.SessionPhase
	NewPhase  models.SessionPhase
}

func (e SessionPhaseEvent) Type() EventType {
	return EventTypeSessionPhase
}

// RoundSettledEvent represents a completed round settlement
type RoundSettledEvent struct {
	ChannelID    int64
	HostID       int64
	Bet          int64
	PlayerCount  int
	HostDelta    int64
	TotalBonuses int64
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events are processed independently of the transaction lifecycle, so a
	// background context avoids expired transaction contexts.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
