package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/extract"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
	"github.com/aretw0/concierge/pkg/session"
	"github.com/aretw0/concierge/pkg/synth"
	"github.com/aretw0/concierge/pkg/trigger"
	"github.com/google/uuid"
)

// Machine routes each user turn either into a form session or to the
// free-text responder. Turns of one conversation are serialized by the
// session manager; different conversations never share state.
type Machine struct {
	catalog   *catalog.Catalog
	sessions  *session.Manager
	documents ports.DocumentStore
	responder ports.Responder

	detector    *trigger.Detector
	extractor   extract.Extractor
	synth       *synth.Synthesizer
	ambient     ports.AmbientProvider
	prompts     *prompts.Set
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	maxAttempts int
	ttl         time.Duration
	timeout     time.Duration
	policy      InterruptPolicy

	location     *time.Location
	preserveCase bool
}

// New creates a Machine. documents receives completed forms and lists the
// user's library for the responder; responder may be nil, in which case
// free-text turns get the generic apology.
func New(c *catalog.Catalog, sessions *session.Manager, documents ports.DocumentStore, responder ports.Responder, opts ...Option) *Machine {
	m := &Machine{
		catalog:     c,
		sessions:    sessions,
		documents:   documents,
		responder:   responder,
		logger:      logging.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		maxAttempts: DefaultMaxAttempts,
		ttl:         DefaultSessionTTL,
		timeout:     DefaultResponderTimeout,
		policy:      InterruptRestart,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.prompts == nil {
		m.prompts = prompts.New("")
	}
	if m.detector == nil {
		m.detector = trigger.New(c)
	}
	if m.extractor == nil {
		m.extractor = extract.NewRegistry(
			extract.WithClock(m.now),
			extract.WithLocation(m.location),
			extract.WithPreserveCase(m.preserveCase),
		)
	}
	if m.synth == nil {
		m.synth = synth.New(documents,
			synth.WithPrompts(m.prompts),
			synth.WithClock(m.now),
			synth.WithLogger(m.logger),
		)
	}
	return m
}

// turn carries the per-call state of Process.
type turn struct {
	conversationID string
	utterance      string
	now            time.Time
}

// Process handles one user utterance and returns the reply. Only session
// store failures are returned as errors; responder and document failures are
// turned into user-facing replies.
func (m *Machine) Process(ctx context.Context, conversationID, utterance string) (domain.Reply, error) {
	var reply domain.Reply
	err := m.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		reply, err = m.process(ctx, turn{conversationID: conversationID, utterance: utterance, now: m.now()})
		return err
	})
	return reply, err
}

func (m *Machine) process(ctx context.Context, t turn) (domain.Reply, error) {
	s, form, err := m.load(ctx, t)
	if err != nil {
		return domain.Reply{}, err
	}

	if s != nil && s.PendingFormID != "" {
		return m.resolveSwitch(ctx, t, s, form)
	}
	if s != nil && s.Complete() {
		// A previous finalize failed; any message retries it, triggers included.
		return m.finalize(ctx, t, s, form)
	}

	detected, ok, err := m.detector.Detect(t.utterance)
	var ambiguous *domain.AmbiguousTriggerError
	if errors.As(err, &ambiguous) && (s == nil || m.policy != InterruptIgnore) {
		return m.askToDisambiguate(s, form, ambiguous), nil
	}

	if ok {
		switch {
		case s == nil:
			return m.start(ctx, t, detected)
		case m.policy == InterruptRestart:
			if err := m.discard(ctx, t, s, domain.DiscardInterrupted); err != nil {
				return domain.Reply{}, err
			}
			return m.start(ctx, t, detected)
		case m.policy == InterruptConfirm && detected.ID != s.FormID:
			s.PendingFormID = detected.ID
			if err := m.save(ctx, t, s); err != nil {
				return domain.Reply{}, err
			}
			return m.withProgress(m.prompts.ConfirmSwitch(form.Name, detected.Name), form, s), nil
		}
	}

	if s == nil {
		return domain.Reply{Text: m.respond(ctx, t, nil)}, nil
	}
	return m.fill(ctx, t, s, form)
}

// load returns the live session of the conversation, or nil. Expired sessions
// and sessions whose form left the catalog are discarded on the way.
func (m *Machine) load(ctx context.Context, t turn) (*domain.DialogueSession, domain.FormDefinition, error) {
	store := m.sessions.Store()
	s, err := store.Load(ctx, t.conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.FormDefinition{}, nil
	}
	if err != nil {
		return nil, domain.FormDefinition{}, fmt.Errorf("load session: %w", err)
	}

	if s.Expired(t.now, m.ttl) {
		return nil, domain.FormDefinition{}, m.discard(ctx, t, s, domain.DiscardExpired)
	}
	form, err := m.catalog.ByID(s.FormID)
	if err != nil {
		m.logger.Warn("dropping session of unknown form", "conversation_id", t.conversationID, "form_id", s.FormID)
		return nil, domain.FormDefinition{}, m.discard(ctx, t, s, domain.DiscardAbandoned)
	}
	return s, form, nil
}

func (m *Machine) start(ctx context.Context, t turn, form domain.FormDefinition) (domain.Reply, error) {
	s := domain.NewSession(m.newID(), t.conversationID, form, t.now)
	if err := m.save(ctx, t, s); err != nil {
		return domain.Reply{}, err
	}
	m.logger.Info("form session started", "conversation_id", t.conversationID, "session_id", s.ID, "form_id", form.ID)
	if m.hooks.OnSessionStart != nil {
		m.hooks.OnSessionStart(ctx, &domain.SessionEvent{
			EventBase: m.event(t, domain.EventSessionStart),
			SessionID: s.ID,
			FormID:    form.ID,
		})
	}

	field, _ := form.Field(s.Cursor)
	return m.withProgress(m.prompts.Start(form.Name, field.Label), form, s), nil
}

func (m *Machine) fill(ctx context.Context, t turn, s *domain.DialogueSession, form domain.FormDefinition) (domain.Reply, error) {
	field, ok := form.Field(s.Cursor)
	if !ok {
		// Cursor drifted from the form definition; recompute it.
		s.Advance(form)
		field, _ = form.Field(s.Cursor)
	}

	value, ok := m.extractor.Extract(t.utterance, field)
	if !ok {
		return m.extractionFailed(ctx, t, s, form, field)
	}

	s.Collected[field.ID] = value
	delete(s.Attempts, field.ID)
	s.Advance(form)
	if m.hooks.OnSlotFilled != nil {
		m.hooks.OnSlotFilled(ctx, m.slotEvent(t, domain.EventSlotFilled, s, field, 0))
	}
	m.logger.Debug("slot filled", "conversation_id", t.conversationID, "field_id", field.ID, "value", value)

	if s.Complete() {
		return m.finalize(ctx, t, s, form)
	}
	if err := m.save(ctx, t, s); err != nil {
		return domain.Reply{}, err
	}
	next, _ := form.Field(s.Cursor)
	return m.withProgress(m.prompts.Next(next.Label), form, s), nil
}

func (m *Machine) extractionFailed(ctx context.Context, t turn, s *domain.DialogueSession, form domain.FormDefinition, field domain.FieldSpec) (domain.Reply, error) {
	s.Attempts[field.ID]++
	attempt := s.Attempts[field.ID]
	if m.hooks.OnExtractionFailed != nil {
		m.hooks.OnExtractionFailed(ctx, m.slotEvent(t, domain.EventExtractionFailed, s, field, attempt))
	}

	if m.maxAttempts <= 0 || attempt < m.maxAttempts {
		if err := m.save(ctx, t, s); err != nil {
			return domain.Reply{}, err
		}
		return m.withProgress(m.prompts.Reprompt(field.Label), form, s), nil
	}

	// Too many misses on the same field: let the free-text responder help,
	// keeping the session so the user can carry on afterwards.
	delete(s.Attempts, field.ID)
	if err := m.save(ctx, t, s); err != nil {
		return domain.Reply{}, err
	}
	m.logger.Info("escalating field to responder", "conversation_id", t.conversationID, "field_id", field.ID, "attempts", attempt)
	if m.hooks.OnEscalated != nil {
		m.hooks.OnEscalated(ctx, m.slotEvent(t, domain.EventEscalated, s, field, attempt))
	}
	text := m.respond(ctx, t, &ports.ActiveForm{Form: form, Collected: s.Collected, Field: field})
	return m.withProgress(text, form, s), nil
}

func (m *Machine) finalize(ctx context.Context, t turn, s *domain.DialogueSession, form domain.FormDefinition) (domain.Reply, error) {
	doc, confirmation, err := m.synth.Finalize(ctx, form, s)
	if err != nil {
		m.logger.Error("document persistence failed", "conversation_id", t.conversationID, "session_id", s.ID, "err", err)
		if m.hooks.OnPersistFailed != nil {
			m.hooks.OnPersistFailed(ctx, &domain.FailureEvent{
				EventBase: m.event(t, domain.EventPersistFailed),
				SessionID: s.ID,
				Err:       err,
			})
		}
		if err := m.save(ctx, t, s); err != nil {
			return domain.Reply{}, err
		}
		return m.withProgress(m.prompts.PersistFailed(form.Name), form, s), nil
	}

	if err := m.sessions.Store().Delete(ctx, t.conversationID); err != nil {
		return domain.Reply{}, fmt.Errorf("delete completed session: %w", err)
	}
	m.logger.Info("form completed", "conversation_id", t.conversationID, "session_id", s.ID, "document_id", doc.ID)
	if m.hooks.OnSessionComplete != nil {
		m.hooks.OnSessionComplete(ctx, &domain.SessionEvent{
			EventBase: m.event(t, domain.EventSessionComplete),
			SessionID: s.ID,
			FormID:    form.ID,
		})
	}
	return domain.Reply{Text: confirmation, Document: &doc}, nil
}

func (m *Machine) resolveSwitch(ctx context.Context, t turn, s *domain.DialogueSession, form domain.FormDefinition) (domain.Reply, error) {
	pending := s.PendingFormID
	s.PendingFormID = ""

	next, err := m.catalog.ByID(pending)
	if err == nil && prompts.IsAffirmative(t.utterance) {
		if err := m.discard(ctx, t, s, domain.DiscardInterrupted); err != nil {
			return domain.Reply{}, err
		}
		return m.start(ctx, t, next)
	}

	if err := m.save(ctx, t, s); err != nil {
		return domain.Reply{}, err
	}
	field, _ := form.Field(s.Cursor)
	return m.withProgress(m.prompts.KeepGoing(form.Name, field.Label), form, s), nil
}

func (m *Machine) askToDisambiguate(s *domain.DialogueSession, form domain.FormDefinition, amb *domain.AmbiguousTriggerError) domain.Reply {
	names := make([]string, len(amb.Candidates))
	for i, c := range amb.Candidates {
		names[i] = c.Name
	}
	text := m.prompts.Ambiguous(names)
	if s == nil {
		return domain.Reply{Text: text}
	}
	return m.withProgress(text, form, s)
}

// respond calls the free-text responder, mapping failures to the apology.
func (m *Machine) respond(ctx context.Context, t turn, active *ports.ActiveForm) string {
	if m.responder == nil {
		return m.prompts.ResponderError()
	}
	req := ports.ResponderRequest{
		ConversationID: t.conversationID,
		Utterance:      t.utterance,
		Ambient:        m.ambientContext(ctx, t.conversationID),
		Active:         active,
	}

	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	text, err := m.responder.Respond(callCtx, req)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrResponder, err)
		m.logger.Warn("responder failed", "conversation_id", t.conversationID, "err", err)
		if m.hooks.OnResponderFailed != nil {
			m.hooks.OnResponderFailed(ctx, &domain.FailureEvent{
				EventBase: m.event(t, domain.EventResponderFailed),
				Err:       err,
			})
		}
		return m.prompts.ResponderError()
	}
	if strings.TrimSpace(text) == "" {
		return m.prompts.EmptyReply()
	}
	return text
}

func (m *Machine) ambientContext(ctx context.Context, conversationID string) ports.AmbientContext {
	var ac ports.AmbientContext
	if m.ambient != nil {
		items, err := m.ambient.PendingItems(ctx, conversationID)
		if err != nil {
			m.logger.Warn("pending items unavailable", "conversation_id", conversationID, "err", err)
		}
		ac.PendingItems = items
	}
	if m.documents != nil {
		docs, err := m.documents.List(ctx)
		if err != nil {
			m.logger.Warn("document list unavailable", "conversation_id", conversationID, "err", err)
		}
		for _, d := range docs {
			if d.ConversationID == conversationID {
				ac.Documents = append(ac.Documents, d.Name)
			}
		}
	}
	return ac
}

func (m *Machine) save(ctx context.Context, t turn, s *domain.DialogueSession) error {
	s.UpdatedAt = t.now
	if err := m.sessions.Store().Save(ctx, t.conversationID, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Machine) discard(ctx context.Context, t turn, s *domain.DialogueSession, reason domain.DiscardReason) error {
	if err := m.sessions.Store().Delete(ctx, t.conversationID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info("form session discarded", "conversation_id", t.conversationID, "session_id", s.ID, "reason", reason)
	m.fireDiscard(ctx, t, s, reason)
	return nil
}

func (m *Machine) fireDiscard(ctx context.Context, t turn, s *domain.DialogueSession, reason domain.DiscardReason) {
	if m.hooks.OnSessionDiscard == nil {
		return
	}
	m.hooks.OnSessionDiscard(ctx, &domain.SessionEvent{
		EventBase: m.event(t, domain.EventSessionDiscard),
		SessionID: s.ID,
		FormID:    s.FormID,
		Reason:    reason,
	})
}

func (m *Machine) withProgress(text string, form domain.FormDefinition, s *domain.DialogueSession) domain.Reply {
	p := domain.ProgressOf(form, s)
	return domain.Reply{Text: text, Progress: &p}
}

func (m *Machine) event(t turn, typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: t.now, Type: typ, ConversationID: t.conversationID}
}

func (m *Machine) slotEvent(t turn, typ domain.EventType, s *domain.DialogueSession, field domain.FieldSpec, attempt int) *domain.SlotEvent {
	return &domain.SlotEvent{
		EventBase: m.event(t, typ),
		SessionID: s.ID,
		FormID:    s.FormID,
		FieldID:   field.ID,
		FieldType: field.Type,
		Attempt:   attempt,
	}
}
