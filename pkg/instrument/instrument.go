package instrument

import (
	"context"
	"fmt"
	"time"

	"github.com/nanoforge-io/synthctl/internal/adapters/fs"
	"github.com/nanoforge-io/synthctl/internal/adapters/s7"
	"github.com/nanoforge-io/synthctl/internal/adapters/sim"
	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
	"github.com/nanoforge-io/synthctl/internal/session"
	"github.com/nanoforge-io/synthctl/internal/txn"
	"github.com/nanoforge-io/synthctl/internal/validate"
)

// Config holds the configuration for one instrument connection.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Simulate selects the in-memory simulated controller instead of a
	// live connection.
	Simulate bool

	// Addr, Rack, Slot and DBNumber locate the live controller. Ignored
	// when Simulate is true or a custom transport option is given.
	Addr     string
	Rack     int
	Slot     int
	DBNumber int

	// Timeout bounds each transport round trip.
	Timeout time.Duration

	// CommandTimeout and AbortTimeout are the session timing budgets.
	CommandTimeout time.Duration
	AbortTimeout   time.Duration

	// LimitsFile optionally overrides the shipped validation limits.
	LimitsFile string

	// JournalDir, when set, enables journaling of finished sessions.
	JournalDir string
}

// DefaultConfig returns a Config with default values. The simulator is the
// default so nothing moves hardware unless explicitly requested.
func DefaultConfig() Config {
	return Config{
		Simulate:       true,
		Rack:           0,
		Slot:           1,
		DBNumber:       9,
		Timeout:        3 * time.Second,
		CommandTimeout: 5 * time.Second,
		AbortTimeout:   2 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Simulate && c.Addr == "" {
		return fmt.Errorf("%w: addr is required for a live controller", domain.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// Instrument owns one controller connection and its session. Exactly one
// session is live per Instrument; once that session reaches a terminal
// phase, create a new Instrument for the next operation.
type Instrument struct {
	config    Config
	transport ports.Transport
	limits    *validate.Store
	session   *session.Session
	logger    ports.Logger
}

// New creates an Instrument with the given configuration. Connecting to a
// live controller happens here; a connection failure is returned, never
// silently retried or downgraded to simulation.
func New(cfg Config, opts ...Option) (*Instrument, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	lim := validate.DefaultLimits()
	if o.limits != nil {
		lim = *o.limits
	} else if cfg.LimitsFile != "" {
		loaded, err := validate.LoadLimitsFile(cfg.LimitsFile)
		if err != nil {
			return nil, fmt.Errorf("load limits file: %w", err)
		}
		lim = loaded
	}
	limits := validate.NewStore(lim)

	transport := o.transport
	if transport == nil {
		if cfg.Simulate {
			transport = sim.New()
		} else {
			t, err := s7.Connect(s7.Config{
				Addr:     cfg.Addr,
				Rack:     cfg.Rack,
				Slot:     cfg.Slot,
				DBNumber: cfg.DBNumber,
				Timeout:  cfg.Timeout,
			}, logger)
			if err != nil {
				return nil, err
			}
			transport = t
		}
	}

	journal := o.journal
	if journal == nil && cfg.JournalDir != "" {
		journal = fs.NewSessionJournal(cfg.JournalDir)
	}

	manager := txn.NewManager(transport, logger)
	sess := session.New(session.Config{
		CommandTimeout: cfg.CommandTimeout,
		AbortTimeout:   cfg.AbortTimeout,
	}, manager, limits, logger, o.notifier, journal)

	return &Instrument{
		config:    cfg,
		transport: transport,
		limits:    limits,
		session:   sess,
		logger:    logger,
	}, nil
}

// Propose submits a candidate configuration for validation.
func (i *Instrument) Propose(cfg RunConfiguration) (ValidationResult, error) {
	return i.session.Propose(cfg)
}

// Start commits the accepted configuration and starts the operation.
func (i *Instrument) Start(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Start(ctx)
}

// Pause suspends the running operation.
func (i *Instrument) Pause(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Pause(ctx)
}

// Resume continues a paused operation.
func (i *Instrument) Resume(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Resume(ctx)
}

// Stop finishes the operation gracefully.
func (i *Instrument) Stop(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Stop(ctx)
}

// Abort stops the instrument unconditionally.
func (i *Instrument) Abort(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Abort(ctx)
}

// Poll reads the controller status and advances the session on completion
// or fault.
func (i *Instrument) Poll(ctx context.Context) (SessionSnapshot, error) {
	return i.session.Poll(ctx)
}

// Snapshot returns the current session state.
func (i *Instrument) Snapshot() SessionSnapshot {
	return i.session.Snapshot()
}

// Limits returns the live limits store. The limits watcher plugin replaces
// its contents when the limits file changes on disk.
func (i *Instrument) Limits() *LimitsStore {
	return i.limits
}

// Close releases the controller connection.
func (i *Instrument) Close() error {
	return i.transport.Close()
}
