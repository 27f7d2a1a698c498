package instrument

import (
	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
	"github.com/nanoforge-io/synthctl/internal/validate"
	"github.com/nanoforge-io/synthctl/pkg/log"
)

// Re-exported domain types so embedders need a single import.
type (
	// RunConfiguration is a candidate synthesis or maintenance instruction.
	RunConfiguration = domain.RunConfiguration

	// ValidationResult is the outcome of static validation.
	ValidationResult = domain.ValidationResult

	// Violation describes one failed validation rule.
	Violation = domain.Violation

	// TransactionResult is the outcome of a verified register write.
	TransactionResult = domain.TransactionResult

	// SessionSnapshot is an immutable view of the session state.
	SessionSnapshot = domain.SessionSnapshot

	// ChipID selects the mixer geometry.
	ChipID = domain.ChipID

	// ManifoldID selects the reservoir/manifold size.
	ManifoldID = domain.ManifoldID

	// Mode is the requested operating mode.
	Mode = domain.Mode

	// Phase is the session operating phase.
	Phase = domain.Phase

	// Transport abstracts the physical channel to the controller.
	Transport = ports.Transport

	// Notifier receives session state change notifications.
	Notifier = ports.Notifier

	// NotifierFunc adapts a function to the Notifier interface.
	NotifierFunc = ports.NotifierFunc

	// SessionJournal persists finished session outcomes.
	SessionJournal = ports.SessionJournal

	// Limits holds the instrument-physical validation bounds.
	Limits = validate.Limits

	// LimitsStore holds the live limits and allows hot replacement.
	LimitsStore = validate.Store

	// Logger is the structured logging abstraction.
	Logger = log.Logger
)

// Re-exported enum values.
const (
	ChipBaffle       = domain.ChipBaffle
	ChipHerringbone  = domain.ChipHerringbone
	ManifoldSmall    = domain.ManifoldSmall
	ManifoldLarge    = domain.ManifoldLarge
	ModeRun          = domain.ModeRun
	ModeClean        = domain.ModeClean
	ModePressureTest = domain.ModePressureTest
)

// DefaultLimits returns the shipped instrument validation limits.
func DefaultLimits() Limits {
	return validate.DefaultLimits()
}

// Option configures optional behavior of an Instrument.
type Option func(*options)

// options holds the optional configuration for an Instrument.
type options struct {
	logger    ports.Logger
	transport ports.Transport
	notifier  ports.Notifier
	journal   ports.SessionJournal
	limits    *validate.Limits
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport sets a custom controller transport, bypassing the
// simulate/live selection in Config.
func WithTransport(transport Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithNotifier sets a handler for session state change notifications.
// Notifications are called synchronously from the session's command path.
func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithJournal sets a custom session journal, bypassing Config.JournalDir.
func WithJournal(journal SessionJournal) Option {
	return func(o *options) {
		o.journal = journal
	}
}

// WithLimits sets the validation limits directly, bypassing the defaults
// and Config.LimitsFile.
func WithLimits(limits Limits) Option {
	return func(o *options) {
		o.limits = &limits
	}
}
