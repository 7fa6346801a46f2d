package ports

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// SessionStore persists dialogue sessions keyed by conversation id.
type SessionStore interface {
	// Save persists the session for a given conversation.
	Save(ctx context.Context, conversationID string, session *domain.DialogueSession) error

	// Load retrieves the session of a conversation.
	// Returns domain.ErrSessionNotFound if the conversation has no session.
	Load(ctx context.Context, conversationID string) (*domain.DialogueSession, error)

	// Delete removes the session of a conversation. Deleting a missing session is not an error.
	Delete(ctx context.Context, conversationID string) error

	// List returns the conversation ids that currently have a session.
	List(ctx context.Context) ([]string, error)
}

// DocumentStore is the append-only document library.
type DocumentStore interface {
	// Append stores a document. It returns domain.ErrDocumentExists when a document
	// with the same SessionID is already stored, leaving the stored one untouched.
	Append(ctx context.Context, doc domain.Document) error

	// List returns every stored document, oldest first.
	List(ctx context.Context) ([]domain.Document, error)
}
