package dialogue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/extract"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/prompts"
	"github.com/aretw0/concierge/pkg/synth"
	"github.com/aretw0/concierge/pkg/trigger"
)

const (
	DefaultMaxAttempts      = 3
	DefaultSessionTTL       = 30 * time.Minute
	DefaultResponderTimeout = 30 * time.Second
)

// InterruptPolicy decides what a trigger does while another form is open.
type InterruptPolicy string

const (
	// InterruptRestart drops the open session and starts the triggered form.
	InterruptRestart InterruptPolicy = "restart"
	// InterruptIgnore treats the utterance as an answer to the open form.
	InterruptIgnore InterruptPolicy = "ignore"
	// InterruptConfirm asks the user before switching forms.
	InterruptConfirm InterruptPolicy = "confirm"
)

// ParseInterruptPolicy validates a policy name. Empty means restart.
func ParseInterruptPolicy(name string) (InterruptPolicy, error) {
	switch p := InterruptPolicy(name); p {
	case "":
		return InterruptRestart, nil
	case InterruptRestart, InterruptIgnore, InterruptConfirm:
		return p, nil
	default:
		return "", fmt.Errorf("unknown interrupt policy %q", name)
	}
}

// Option configures a Machine.
type Option func(*Machine)

// WithDetector replaces the default trigger detector.
func WithDetector(d *trigger.Detector) Option {
	return func(m *Machine) {
		m.detector = d
	}
}

// WithExtractor replaces the default extractor registry.
func WithExtractor(e extract.Extractor) Option {
	return func(m *Machine) {
		m.extractor = e
	}
}

// WithSynthesizer replaces the default document synthesizer.
func WithSynthesizer(s *synth.Synthesizer) Option {
	return func(m *Machine) {
		m.synth = s
	}
}

// WithAmbient sets the source of pending items offered to the responder.
func WithAmbient(p ports.AmbientProvider) Option {
	return func(m *Machine) {
		m.ambient = p
	}
}

// WithPrompts sets the language of engine messages.
func WithPrompts(p *prompts.Set) Option {
	return func(m *Machine) {
		m.prompts = p
	}
}

// WithHooks registers lifecycle callbacks. Repeated calls merge.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(h)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithLocation sets the time zone "hoje" and "today" resolve in. Defaults to
// time.Local. Ignored when WithExtractor is given.
func WithLocation(loc *time.Location) Option {
	return func(m *Machine) {
		m.location = loc
	}
}

// WithPreserveCase keeps the casing of text answers instead of folding them
// to lower case. Ignored when WithExtractor is given.
func WithPreserveCase(enabled bool) Option {
	return func(m *Machine) {
		m.preserveCase = enabled
	}
}

// WithIDGenerator sets how session ids are minted. Defaults to UUIDv4.
func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) {
		m.newID = newID
	}
}

// WithMaxAttempts sets how many failed extractions on one field escalate the
// turn to the responder. Zero disables escalation.
func WithMaxAttempts(n int) Option {
	return func(m *Machine) {
		m.maxAttempts = n
	}
}

// WithSessionTTL sets the idle time after which a session is discarded.
// Zero keeps sessions forever.
func WithSessionTTL(ttl time.Duration) Option {
	return func(m *Machine) {
		m.ttl = ttl
	}
}

// WithResponderTimeout bounds each responder call. Zero disables the bound.
func WithResponderTimeout(d time.Duration) Option {
	return func(m *Machine) {
		m.timeout = d
	}
}

func WithInterruptPolicy(p InterruptPolicy) Option {
	return func(m *Machine) {
		m.policy = p
	}
}
