package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when no session exists for a conversation.
var ErrSessionNotFound = errors.New("session not found")

// ErrFormNotFound is returned when a form id is not in the catalog.
var ErrFormNotFound = errors.New("form not found")

// ErrDocumentExists is returned by document stores when a document for the same
// session was already appended.
var ErrDocumentExists = errors.New("document already exists for session")

// ErrPersistence marks a document write that failed after all retries.
var ErrPersistence = errors.New("document persistence failed")

// ErrResponder marks a failure of the free-text responder (error or timeout).
var ErrResponder = errors.New("responder failed")

// ErrAmbiguousTrigger is returned when an utterance matches more than one form.
var ErrAmbiguousTrigger = errors.New("ambiguous trigger")

// AmbiguousTriggerError lists the forms an utterance matched.
type AmbiguousTriggerError struct {
	Candidates []FormDefinition
}

func (e *AmbiguousTriggerError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, f := range e.Candidates {
		ids[i] = f.ID
	}
	return fmt.Sprintf("%s: %s", ErrAmbiguousTrigger, strings.Join(ids, ", "))
}

func (e *AmbiguousTriggerError) Unwrap() error {
	return ErrAmbiguousTrigger
}
