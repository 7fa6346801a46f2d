package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/adapters/file"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/redis"
	"github.com/aretw0/concierge/pkg/adapters/responder"
	"github.com/aretw0/concierge/pkg/adapters/sqlite"
	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/dialogue"
	"github.com/aretw0/concierge/pkg/observability"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a fully wired engine plus the resources it owns.
type App struct {
	Engine   *concierge.Engine
	Catalog  *catalog.Catalog
	Sessions ports.SessionStore
	Registry *prometheus.Registry
	Logger   *slog.Logger
	Config   config.Config

	closers []io.Closer
}

// Close releases stores and connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the logging settings.
// Redaction always covers what users type; configured patterns add to it.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel),
		logging.WithWriter(w),
		logging.WithJSON(cfg.LogFormat == "json"),
		logging.WithRedaction(logging.DefaultRedaction...),
		logging.WithRedaction(cfg.LogRedact...),
	)
}

// LoadCatalog returns the forms of dir, or the builtin forms when dir is empty.
func LoadCatalog(ctx context.Context, dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Builtin()
	}
	return catalog.LoadDir(ctx, dir)
}

// Build wires an App from the configuration.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (app *App, err error) {
	app = &App{Logger: logger, Config: cfg, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	app.Catalog, err = LoadCatalog(ctx, cfg.FormsDir)
	if err != nil {
		return nil, fmt.Errorf("load forms: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	opts := []concierge.Option{
		concierge.WithCatalog(app.Catalog),
		concierge.WithLocation(loc),
		concierge.WithPreserveCase(cfg.PreserveCase),
		concierge.WithLogger(logger),
		concierge.WithLocale(cfg.Locale),
		concierge.WithStrictTriggers(cfg.StrictTriggers),
		concierge.WithFooter(cfg.DocumentFooter),
		concierge.WithPersistAttempts(cfg.PersistAttempts),
	}
	if len(cfg.PendingItems) > 0 {
		opts = append(opts, concierge.WithPendingItems(cfg.PendingItems...))
	}

	sessionOpts, err := app.sessionStore(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, sessionOpts...)

	docs, err := app.documentStore(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, concierge.WithDocumentStore(docs))

	r, err := newResponder(ctx, cfg, app.Catalog)
	if err != nil {
		return nil, err
	}
	opts = append(opts, concierge.WithResponder(r))

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, err
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts = append(opts,
		concierge.WithLifecycleHooks(observability.LogHooks(logger)),
		concierge.WithLifecycleHooks(metrics.Hooks()),
	)

	policy, err := dialogue.ParseInterruptPolicy(cfg.InterruptPolicy)
	if err != nil {
		return nil, err
	}
	opts = append(opts, concierge.WithDialogueOptions(
		dialogue.WithMaxAttempts(cfg.MaxAttempts),
		dialogue.WithSessionTTL(cfg.SessionTTL),
		dialogue.WithResponderTimeout(cfg.ResponderTimeout),
		dialogue.WithInterruptPolicy(policy),
	))

	app.Engine, err = concierge.New(opts...)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// sessionStore picks the session backend, wrapping it in encryption when a
// key is configured. Redis also provides the cross-process lock.
func (a *App) sessionStore(cfg config.Config) ([]concierge.Option, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)
	switch cfg.SessionBackend {
	case config.BackendFile:
		store = file.New(cfg.SessionDir)
	case config.BackendRedis:
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = "concierge:"
		}
		rs := redis.New(cfg.RedisAddr, "", 0, redis.WithPrefix(prefix+"session:"), redis.WithTTL(cfg.SessionTTL))
		a.closers = append(a.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), prefix)
	default:
		store = memory.NewStore()
	}
	a.Sessions = store

	if cfg.EncryptionKey != "" {
		key, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption_key: %w", err)
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
		a.Sessions = store
	}

	opts := []concierge.Option{concierge.WithSessionStore(store)}
	if locker != nil {
		opts = append(opts, concierge.WithLocker(locker, cfg.LockTTL))
	}
	return opts, nil
}

func (a *App) documentStore(cfg config.Config) (ports.DocumentStore, error) {
	if cfg.DocumentBackend != config.BackendSQLite {
		return memory.NewDocumentStore(), nil
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	a.closers = append(a.closers, db)
	return db, nil
}

func newResponder(ctx context.Context, cfg config.Config, c *catalog.Catalog) (ports.Responder, error) {
	p := prompts.New(cfg.Locale)
	switch cfg.Responder {
	case config.ResponderEino:
		return responder.NewOpenAI(ctx, responder.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.ResponderTimeout,
		}, responder.WithPrompts(p))
	case config.ResponderOpenAI:
		client := responder.NewCompletionClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		return responder.NewCompletion(client, cfg.OpenAIModel, responder.WithPrompts(p)), nil
	}
	return responder.Static(offlineHelp(c)), nil
}

// offlineHelp lists what the user can ask for when no model is configured.
func offlineHelp(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("Posso ajudar-te a preencher estes formulários:")
	for _, f := range c.All() {
		b.WriteString("\n- ")
		b.WriteString(f.Name)
		if len(f.Triggers) > 0 {
			fmt.Fprintf(&b, " (diz \"%s\")", f.Triggers[0])
		}
	}
	return b.String()
}
