package ports

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// AmbientContext is the user context offered to the free-text responder.
type AmbientContext struct {
	// PendingItems are services the user still wants (cart, pending requests).
	PendingItems []string
	// Documents are the names of documents already in the user's library.
	Documents []string
}

// ActiveForm describes the form being filled when a turn is escalated.
type ActiveForm struct {
	Form      domain.FormDefinition
	Collected map[string]string
	Field     domain.FieldSpec
}

// ResponderRequest is one free-text turn.
type ResponderRequest struct {
	ConversationID string
	Utterance      string
	Ambient        AmbientContext
	// Active is set when the turn was escalated out of a form session.
	Active *ActiveForm
}

// Responder is the opaque, non-deterministic free-text assistant.
type Responder interface {
	Respond(ctx context.Context, req ResponderRequest) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, req ResponderRequest) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, req ResponderRequest) (string, error) {
	return f(ctx, req)
}

// AmbientProvider supplies the pending items of a conversation.
type AmbientProvider interface {
	PendingItems(ctx context.Context, conversationID string) ([]string, error)
}
