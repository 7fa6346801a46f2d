package concierge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/dialogue"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
	"github.com/aretw0/concierge/pkg/runner"
	"github.com/aretw0/concierge/pkg/session"
	"github.com/aretw0/concierge/pkg/synth"
	"github.com/aretw0/concierge/pkg/trigger"
)

// Engine is the high-level entry point for the Concierge library.
// It wires the form catalog, the session and document stores and the free
// text responder into a dialogue machine.
type Engine struct {
	machine   *dialogue.Machine
	catalog   *catalog.Catalog
	sessions  *session.Manager
	documents ports.DocumentStore

	formsDir     string
	store        ports.SessionStore
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	responder    ports.Responder
	ambient      ports.AmbientProvider
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	locale       string
	strict       bool
	footer       string
	persistTries int
	now          func() time.Time
	machineOpts  []dialogue.Option

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog uses an already built catalog, bypassing the forms directory.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithFormsDir loads the catalog from a Loam repository of form files.
func WithFormsDir(path string) Option {
	return func(e *Engine) {
		e.formsDir = path
	}
}

// WithSessionStore sets where open sessions live (default: in memory).
func WithSessionStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serialises turns across processes sharing a session store.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithDocumentStore sets the user's document library (default: in memory).
func WithDocumentStore(d ports.DocumentStore) Option {
	return func(e *Engine) {
		e.documents = d
	}
}

// WithResponder sets the free text collaborator.
func WithResponder(r ports.Responder) Option {
	return func(e *Engine) {
		e.responder = r
	}
}

// WithAmbient sets the provider of pending items.
func WithAmbient(p ports.AmbientProvider) Option {
	return func(e *Engine) {
		e.ambient = p
	}
}

// WithPendingItems reports the same pending items for every conversation.
func WithPendingItems(items ...string) Option {
	return WithAmbient(StaticAmbient(items))
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLocale selects the prompt set ("pt" or "en").
func WithLocale(locale string) Option {
	return func(e *Engine) {
		e.locale = locale
	}
}

// WithStrictTriggers makes an utterance matching several forms ambiguous
// instead of resolving it by catalog order.
func WithStrictTriggers(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithFooter appends a fixed line to every generated document.
func WithFooter(footer string) Option {
	return func(e *Engine) {
		e.footer = footer
	}
}

// WithPersistAttempts sets how many times a document append is tried.
func WithPersistAttempts(n int) Option {
	return func(e *Engine) {
		e.persistTries = n
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the time zone that resolves relative dates such as "hoje".
func WithLocation(loc *time.Location) Option {
	return WithDialogueOptions(dialogue.WithLocation(loc))
}

// WithPreserveCase keeps the casing of text answers instead of lower-casing them.
func WithPreserveCase(enabled bool) Option {
	return WithDialogueOptions(dialogue.WithPreserveCase(enabled))
}

// WithDialogueOptions passes options straight to the dialogue machine
// (interrupt policy, attempts, TTL and so on).
func WithDialogueOptions(opts ...dialogue.Option) Option {
	return func(e *Engine) {
		e.machineOpts = append(e.machineOpts, opts...)
	}
}

// New initializes a new Concierge Engine.
// Without WithCatalog or WithFormsDir it serves the builtin forms.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{now: time.Now}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if eng.catalog == nil {
		var err error
		if eng.formsDir != "" {
			absPath, perr := filepath.Abs(eng.formsDir)
			if perr != nil {
				return nil, fmt.Errorf("invalid path: %w", perr)
			}
			eng.Name = filepath.Base(absPath)
			eng.catalog, err = catalog.LoadDir(context.Background(), absPath)
		} else {
			eng.Name = "builtin"
			eng.catalog, err = catalog.Builtin()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.documents == nil {
		eng.documents = memory.NewDocumentStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
		if eng.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
		}
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	p := prompts.New(eng.locale)
	var detectorOpts []trigger.Option
	if eng.strict {
		detectorOpts = append(detectorOpts, trigger.WithStrict())
	}
	synthOpts := []synth.Option{
		synth.WithPrompts(p),
		synth.WithClock(eng.now),
		synth.WithLogger(eng.logger),
		synth.WithFooter(eng.footer),
	}
	if eng.persistTries > 0 {
		synthOpts = append(synthOpts, synth.WithAttempts(eng.persistTries))
	}

	machineOpts := []dialogue.Option{
		dialogue.WithPrompts(p),
		dialogue.WithDetector(trigger.New(eng.catalog, detectorOpts...)),
		dialogue.WithSynthesizer(synth.New(eng.documents, synthOpts...)),
		dialogue.WithHooks(eng.hooks),
		dialogue.WithLogger(eng.logger),
		dialogue.WithClock(eng.now),
	}
	if eng.ambient != nil {
		machineOpts = append(machineOpts, dialogue.WithAmbient(eng.ambient))
	}
	machineOpts = append(machineOpts, eng.machineOpts...)

	eng.machine = dialogue.New(eng.catalog, eng.sessions, eng.documents, eng.responder, machineOpts...)
	return eng, nil
}

// Process handles one user turn. The utterance is sanitized before it
// reaches the dialogue machine.
func (e *Engine) Process(ctx context.Context, conversationID, utterance string) (domain.Reply, error) {
	clean, err := runner.SanitizeInput(utterance)
	if err != nil {
		return domain.Reply{}, err
	}
	return e.machine.Process(ctx, conversationID, clean)
}

// Greet opens a conversation with a contextual analysis from the responder.
func (e *Engine) Greet(ctx context.Context, conversationID string) domain.Reply {
	return e.machine.Greet(ctx, conversationID)
}

// Progress reports the open form of a conversation.
func (e *Engine) Progress(ctx context.Context, conversationID string) (domain.Progress, error) {
	return e.machine.Progress(ctx, conversationID)
}

// Session returns a copy of the live session of a conversation.
func (e *Engine) Session(ctx context.Context, conversationID string) (*domain.DialogueSession, error) {
	return e.machine.Session(ctx, conversationID)
}

// Abandon drops the open session of a conversation.
func (e *Engine) Abandon(ctx context.Context, conversationID string) error {
	return e.machine.Abandon(ctx, conversationID)
}

// Sessions lists the conversations with a stored session.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Documents lists the document library. A non-empty conversation ID keeps
// only the documents produced by that conversation.
func (e *Engine) Documents(ctx context.Context, conversationID string) ([]domain.Document, error) {
	docs, err := e.documents.List(ctx)
	if err != nil || conversationID == "" {
		return docs, err
	}
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if d.ConversationID == conversationID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ReapExpired discards sessions idle for longer than the session TTL.
func (e *Engine) ReapExpired(ctx context.Context) (int, error) {
	return e.machine.ReapExpired(ctx)
}

// StartReaper reaps expired sessions every interval until ctx is done.
func (e *Engine) StartReaper(ctx context.Context, interval time.Duration) <-chan struct{} {
	return e.machine.StartReaper(ctx, interval)
}

// Catalog returns the forms the engine serves.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// StaticAmbient reports the same pending items for every conversation.
type StaticAmbient []string

func (s StaticAmbient) PendingItems(context.Context, string) ([]string, error) {
	return append([]string(nil), s...), nil
}
