// Package config loads the process configuration from defaults, an optional
// YAML file, a .env file and CONCIERGE_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/aretw0/concierge/pkg/dialogue"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "CONCIERGE_"

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"

	ResponderNone   = "none"
	ResponderEino   = "eino"
	ResponderOpenAI = "openai"
)

// Config is the full process configuration.
type Config struct {
	LogLevel  string   `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string   `yaml:"log_format" env:"LOG_FORMAT"`
	LogRedact []string `yaml:"log_redact" env:"LOG_REDACT" envSeparator:","`

	Locale string `yaml:"locale" env:"LOCALE"`
	// FormsDir is a directory of form definitions. Empty uses the builtin catalog.
	FormsDir       string `yaml:"forms_dir" env:"FORMS_DIR"`
	StrictTriggers bool   `yaml:"strict_triggers" env:"STRICT_TRIGGERS"`
	// Timezone resolves relative dates. Empty uses the host zone.
	Timezone     string `yaml:"timezone" env:"TIMEZONE"`
	PreserveCase bool   `yaml:"preserve_case" env:"PRESERVE_CASE"`

	MaxAttempts     int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	InterruptPolicy string        `yaml:"interrupt_policy" env:"INTERRUPT_POLICY"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	ReapInterval    time.Duration `yaml:"reap_interval" env:"REAP_INTERVAL"`

	SessionBackend string        `yaml:"session_backend" env:"SESSION_BACKEND"`
	SessionDir     string        `yaml:"session_dir" env:"SESSION_DIR"`
	RedisAddr      string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPrefix    string        `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	LockTTL        time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
	// EncryptionKey seals sessions at rest: 32 bytes, hex or base64.
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`

	DocumentBackend string `yaml:"document_backend" env:"DOCUMENT_BACKEND"`
	SQLitePath      string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	DocumentFooter  string `yaml:"document_footer" env:"DOCUMENT_FOOTER"`
	PersistAttempts int    `yaml:"persist_attempts" env:"PERSIST_ATTEMPTS"`

	Responder        string        `yaml:"responder" env:"RESPONDER"`
	OpenAIAPIKey     string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel      string        `yaml:"openai_model" env:"OPENAI_MODEL"`
	OpenAIBaseURL    string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	ResponderTimeout time.Duration `yaml:"responder_timeout" env:"RESPONDER_TIMEOUT"`
	// PendingItems are services offered to the responder as still pending.
	PendingItems []string `yaml:"pending_items" env:"PENDING_ITEMS" envSeparator:";"`

	Addr           string   `yaml:"addr" env:"ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Locale:           "pt-PT",
		MaxAttempts:      dialogue.DefaultMaxAttempts,
		InterruptPolicy:  string(dialogue.InterruptRestart),
		SessionTTL:       dialogue.DefaultSessionTTL,
		ReapInterval:     time.Minute,
		SessionBackend:   BackendMemory,
		SessionDir:       ".concierge/sessions",
		RedisAddr:        "localhost:6379",
		LockTTL:          30 * time.Second,
		DocumentBackend:  BackendMemory,
		SQLitePath:       ".concierge/documents.db",
		PersistAttempts:  2,
		Responder:        ResponderNone,
		OpenAIModel:      "gpt-4o-mini",
		ResponderTimeout: dialogue.DefaultResponderTimeout,
		Addr:             ":8080",
		AllowedOrigins:   []string{"*"},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	oneOf := func(name, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %v)", name, value, allowed))
	}

	oneOf("log_format", c.LogFormat, "text", "json")
	oneOf("session_backend", c.SessionBackend, BackendMemory, BackendFile, BackendRedis)
	oneOf("document_backend", c.DocumentBackend, BackendMemory, BackendSQLite)
	oneOf("responder", c.Responder, ResponderNone, ResponderEino, ResponderOpenAI)
	if _, err := dialogue.ParseInterruptPolicy(c.InterruptPolicy); err != nil {
		errs = append(errs, fmt.Errorf("interrupt_policy: %w", err))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("max_attempts must not be negative"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("session_ttl must not be negative"))
	}
	if c.SessionTTL > 0 && c.ReapInterval <= 0 {
		errs = append(errs, errors.New("reap_interval must be positive when sessions expire"))
	}
	if c.PersistAttempts < 2 {
		errs = append(errs, errors.New("persist_attempts must be at least 2"))
	}
	if c.EncryptionKey != "" {
		if _, err := middleware.DecodeKey(c.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("encryption_key: %w", err))
		}
	}
	if c.Responder != ResponderNone && c.Responder != "" && c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("responder %s needs openai_api_key", c.Responder))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. Empty means time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
