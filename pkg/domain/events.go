package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart     EventType = "session_start"
	EventSessionDiscard   EventType = "session_discard"
	EventSessionComplete  EventType = "session_complete"
	EventSlotFilled       EventType = "slot_filled"
	EventExtractionFailed EventType = "extraction_failed"
	EventEscalated        EventType = "escalated"
	EventResponderFailed  EventType = "responder_failed"
	EventPersistFailed    EventType = "persist_failed"
)

// DiscardReason explains why a session was dropped without a document.
type DiscardReason string

const (
	DiscardInterrupted DiscardReason = "interrupted"
	DiscardExpired     DiscardReason = "expired"
	DiscardAbandoned   DiscardReason = "abandoned"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
}

// SessionEvent is emitted when a session starts, completes or is discarded.
type SessionEvent struct {
	EventBase
	SessionID string        `json:"session_id"`
	FormID    string        `json:"form_id"`
	Reason    DiscardReason `json:"reason,omitempty"`
}

// SlotEvent is emitted for each extraction attempt on the cursor field.
// Values are never carried: they are personal data.
type SlotEvent struct {
	EventBase
	SessionID string    `json:"session_id"`
	FormID    string    `json:"form_id"`
	FieldID   string    `json:"field_id"`
	FieldType FieldType `json:"field_type"`
	Attempt   int       `json:"attempt,omitempty"`
}

// FailureEvent is emitted when an external collaborator fails.
type FailureEvent struct {
	EventBase
	SessionID string `json:"session_id,omitempty"`
	Err       error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSessionStart     func(context.Context, *SessionEvent)
	OnSessionDiscard   func(context.Context, *SessionEvent)
	OnSessionComplete  func(context.Context, *SessionEvent)
	OnSlotFilled       func(context.Context, *SlotEvent)
	OnExtractionFailed func(context.Context, *SlotEvent)
	OnEscalated        func(context.Context, *SlotEvent)
	OnResponderFailed  func(context.Context, *FailureEvent)
	OnPersistFailed    func(context.Context, *FailureEvent)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart:     chain(h.OnSessionStart, o.OnSessionStart),
		OnSessionDiscard:   chain(h.OnSessionDiscard, o.OnSessionDiscard),
		OnSessionComplete:  chain(h.OnSessionComplete, o.OnSessionComplete),
		OnSlotFilled:       chain(h.OnSlotFilled, o.OnSlotFilled),
		OnExtractionFailed: chain(h.OnExtractionFailed, o.OnExtractionFailed),
		OnEscalated:        chain(h.OnEscalated, o.OnEscalated),
		OnResponderFailed:  chain(h.OnResponderFailed, o.OnResponderFailed),
		OnPersistFailed:    chain(h.OnPersistFailed, o.OnPersistFailed),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
