package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
)

// Mask replaces the value of redacted attributes.
const Mask = "***"

type config struct {
	w      io.Writer
	json   bool
	redact []*regexp.Regexp
}

// Option configures New.
type Option func(*config)

// WithWriter sets the output. Defaults to Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.w = w
	}
}

// WithJSON switches the handler to JSON lines.
func WithJSON(enabled bool) Option {
	return func(c *config) {
		c.json = enabled
	}
}

// WithRedaction masks attribute values whose key matches any of the patterns.
// Invalid patterns are skipped.
func WithRedaction(patterns ...string) Option {
	return func(c *config) {
		for _, p := range patterns {
			if re, err := regexp.Compile(p); err == nil {
				c.redact = append(c.redact, re)
			}
		}
	}
}

// DefaultRedaction covers the attributes that carry what users typed.
var DefaultRedaction = []string{`^utterance$`, `^value$`, `^text$`, `(?i)nif|niss`}

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout chat/JSON-RPC).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, opts ...Option) *slog.Logger {
	cfg := config{w: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			for _, re := range cfg.redact {
				if re.MatchString(a.Key) {
					return slog.String(a.Key, Mask)
				}
			}
			return a
		},
	}

	if cfg.json {
		return slog.New(slog.NewJSONHandler(cfg.w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(cfg.w, handlerOpts))
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
