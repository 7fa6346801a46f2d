// Package synth turns a completed dialogue session into a stored document.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
)

// Synthesizer builds documents and appends them to the library.
type Synthesizer struct {
	store    ports.DocumentStore
	prompts  *prompts.Set
	attempts int
	backoff  time.Duration
	footer   string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithAttempts sets how many times a failed write is tried. Values below 2 are raised to 2.
func WithAttempts(n int) Option {
	return func(s *Synthesizer) {
		s.attempts = n
	}
}

// WithBackoff sets the pause between write attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.backoff = d
	}
}

// WithFooter appends a closing paragraph to every transcript.
func WithFooter(footer string) Option {
	return func(s *Synthesizer) {
		s.footer = footer
	}
}

// WithPrompts sets the message set used for names and confirmations.
func WithPrompts(p *prompts.Set) Option {
	return func(s *Synthesizer) {
		s.prompts = p
	}
}

// WithClock sets the document timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// New creates a Synthesizer writing to store.
func New(store ports.DocumentStore, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:    store,
		attempts: 2,
		backoff:  100 * time.Millisecond,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.attempts < 2 {
		s.attempts = 2
	}
	if s.prompts == nil {
		s.prompts = prompts.New("")
	}
	return s
}

// Transcript renders the collected values in declared field order. Optional
// fields without a value are left out.
func (s *Synthesizer) Transcript(form domain.FormDefinition, collected map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Formulário: %s\n", form.Name)
	fmt.Fprintf(&b, "Categoria: %s\n", form.Category)
	b.WriteString("\nDados recolhidos:\n")
	for _, field := range form.Fields {
		v, ok := collected[field.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", field.Label, v)
	}
	if s.footer != "" {
		b.WriteString("\n")
		b.WriteString(s.footer)
		b.WriteString("\n")
	}
	return b.String()
}

// Build creates the document for a completed session without storing it.
func (s *Synthesizer) Build(form domain.FormDefinition, session *domain.DialogueSession) domain.Document {
	return domain.Document{
		ID:             domain.DocumentID(session.ID),
		Name:           s.prompts.DocumentName(form.Name),
		Category:       form.Category,
		Status:         domain.StatusValid,
		FormRef:        form.ID,
		Data:           maps.Clone(session.Collected),
		Content:        s.Transcript(form, session.Collected),
		SessionID:      session.ID,
		ConversationID: session.ConversationID,
		CreatedAt:      s.now(),
	}
}

// Finalize builds the document, appends it and returns the user confirmation.
// A document already stored for the session counts as success, so calling
// Finalize again for the same session never creates a duplicate. Failures that
// outlast every retry wrap domain.ErrPersistence.
func (s *Synthesizer) Finalize(ctx context.Context, form domain.FormDefinition, session *domain.DialogueSession) (domain.Document, string, error) {
	if !session.Complete() {
		return domain.Document{}, "", fmt.Errorf("session %s is not complete (cursor %s)", session.ID, session.Cursor)
	}
	doc := s.Build(form, session)

	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.store.Append(ctx, doc)
		if err == nil || errors.Is(err, domain.ErrDocumentExists) {
			return doc, s.prompts.Done(form.Name), nil
		}
		s.logger.Warn("document append failed",
			"session_id", session.ID,
			"form_id", form.ID,
			"attempt", attempt,
			"err", err,
		)
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return domain.Document{}, "", fmt.Errorf("%w: %w", domain.ErrPersistence, ctx.Err())
		case <-time.After(s.backoff):
		}
	}
	return domain.Document{}, "", fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
