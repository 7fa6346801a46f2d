package domain

import (
	"maps"
	"time"
)

// CursorComplete is the cursor sentinel once every required field is collected.
const CursorComplete = "__complete__"

// DialogueSession captures the in-flight state of one conversation filling one form.
// At most one session exists per conversation.
type DialogueSession struct {
	// ID identifies this session and is the dedup key of its document.
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	FormID         string            `json:"form_id"`
	Collected      map[string]string `json:"collected"`
	// Cursor is the next required field to ask, or CursorComplete.
	Cursor string `json:"cursor"`
	// Attempts counts consecutive extraction failures per field.
	Attempts map[string]int `json:"attempts,omitempty"`
	// PendingFormID is set while waiting for the user to confirm a form switch.
	PendingFormID string    `json:"pending_form_id,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSession starts a session with an empty collection, positioned at the first
// required field of form.
func NewSession(id, conversationID string, form FormDefinition, now time.Time) *DialogueSession {
	s := &DialogueSession{
		ID:             id,
		ConversationID: conversationID,
		FormID:         form.ID,
		Collected:      make(map[string]string),
		Attempts:       make(map[string]int),
		StartedAt:      now,
		UpdatedAt:      now,
	}
	s.Advance(form)
	return s
}

// Advance recomputes the cursor from the collected values.
func (s *DialogueSession) Advance(form FormDefinition) {
	if next, ok := form.NextRequired(s.Collected); ok {
		s.Cursor = next.ID
		return
	}
	s.Cursor = CursorComplete
}

// Complete reports whether the cursor has reached the sentinel.
func (s *DialogueSession) Complete() bool {
	return s.Cursor == CursorComplete
}

// Expired reports whether the session has been idle longer than ttl.
// A non-positive ttl never expires.
func (s *DialogueSession) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// Clone returns a deep copy of the session.
func (s *DialogueSession) Clone() *DialogueSession {
	c := *s
	c.Collected = maps.Clone(s.Collected)
	c.Attempts = maps.Clone(s.Attempts)
	if c.Collected == nil {
		c.Collected = make(map[string]string)
	}
	if c.Attempts == nil {
		c.Attempts = make(map[string]int)
	}
	return &c
}
