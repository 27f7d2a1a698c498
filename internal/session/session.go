// Package session owns the authoritative operating state of one instrument
// session and drives it across the controller's three operating modes.
//
// The session is the only component allowed to invoke the transaction
// manager. All mutations are serialized (single-writer discipline):
// concurrent commands from the driving agent are applied one at a time,
// never interleaved.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
	"github.com/nanoforge-io/synthctl/internal/register"
	"github.com/nanoforge-io/synthctl/internal/txn"
	"github.com/nanoforge-io/synthctl/internal/validate"
)

// Config holds session timing parameters.
type Config struct {
	// CommandTimeout bounds each controller interaction issued by a
	// session command.
	CommandTimeout time.Duration

	// AbortTimeout bounds the best-effort stop pulse during Abort. Abort
	// never blocks on controller responsiveness beyond this budget.
	AbortTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		CommandTimeout: 5 * time.Second,
		AbortTimeout:   2 * time.Second,
	}
}

// Session is the state machine for one controller connection. Exactly one
// Session is live per connection; terminal sessions require a fresh Session
// over a fresh transport handle.
type Session struct {
	cfg      Config
	tm       *txn.Manager
	limits   *validate.Store
	logger   ports.Logger
	notifier ports.Notifier
	journal  ports.SessionJournal

	// All fields below are guarded by the command gate: every exported
	// command takes the gate for its full duration.
	gate        chan struct{}
	phase       domain.Phase
	mode        domain.Mode
	pending     *register.Frame
	lastConfig  *domain.RunConfiguration
	lastResult  *domain.TransactionResult
	faultReason string
	startedAt   time.Time
}

// New creates an idle session over the given transaction manager.
// notifier and journal may be nil.
func New(cfg Config, tm *txn.Manager, limits *validate.Store, logger ports.Logger, notifier ports.Notifier, journal ports.SessionJournal) *Session {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultConfig().CommandTimeout
	}
	if cfg.AbortTimeout <= 0 {
		cfg.AbortTimeout = DefaultConfig().AbortTimeout
	}
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &Session{
		cfg:       cfg,
		tm:        tm,
		limits:    limits,
		logger:    logger,
		notifier:  notifier,
		journal:   journal,
		gate:      gate,
		phase:     domain.PhaseIdle,
		startedAt: time.Now(),
	}
}

// Propose submits a candidate configuration for validation.
//
// Allowed from Idle and Configuring (a rejected proposal returns the session
// to Configuring so the caller can correct and resubmit). On acceptance the
// frame is encoded and held; Start commits it. No controller I/O occurs on
// rejection.
func (s *Session) Propose(cfg domain.RunConfiguration) (domain.ValidationResult, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return domain.ValidationResult{}, s.terminalErr("PROPOSE_CONFIG")
	}
	if s.phase != domain.PhaseIdle && s.phase != domain.PhaseConfiguring {
		return domain.ValidationResult{}, s.illegal("PROPOSE_CONFIG")
	}

	s.transition(domain.PhaseConfiguring, "configuration proposed")

	cfg = validate.ApplyCleanDefaults(cfg)

	s.transition(domain.PhaseValidating, "validating")
	result := validate.Validate(cfg, s.limits.Current())
	if !result.Accepted {
		s.transition(domain.PhaseConfiguring, fmt.Sprintf("rejected (%d violations)", len(result.Violations)))
		return result, nil
	}

	frame := register.Encode(cfg)
	s.pending = &frame
	s.mode = cfg.Mode
	s.lastConfig = &cfg
	s.transition(domain.PhaseLoaded, "configuration accepted")
	return result, nil
}

// Start commits the loaded frame and starts the operation.
//
// On a committed transaction the command bits are cleared and the mode's
// START bit is pulsed; the session enters Running (Cleaning for CLEAN mode).
// A rollback or unreachable transport faults the session.
func (s *Session) Start(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return s.snapshot(), s.terminalErr("START")
	}
	if s.phase != domain.PhaseLoaded || s.pending == nil {
		return s.snapshot(), s.illegal("START")
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()

	result := s.tm.Commit(cctx, *s.pending)
	s.lastResult = &result
	switch result.Outcome {
	case domain.TxCommitted:
		// fallthrough to start pulse below
	case domain.TxRolledBack:
		s.fault(fmt.Sprintf("readback mismatch on %d field(s)", len(result.Mismatches)))
		return s.snapshot(), nil
	default:
		s.fault("controller unreachable: " + result.Detail)
		return s.snapshot(), nil
	}

	if err := s.tm.ClearCommands(cctx); err != nil {
		s.fault("clear command bits: " + err.Error())
		return s.snapshot(), nil
	}
	if err := s.tm.PulseCommand(cctx, s.mode, register.BitStart, true); err != nil {
		s.fault("start pulse: " + err.Error())
		return s.snapshot(), nil
	}

	s.pending = nil
	if s.mode == domain.ModeClean {
		s.transition(domain.PhaseCleaning, "clean started")
	} else {
		s.transition(domain.PhaseRunning, "operation started")
	}
	return s.snapshot(), nil
}

// Pause suspends a running operation. The configuration and the committed
// transaction stay in place.
func (s *Session) Pause(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return s.snapshot(), s.terminalErr("PAUSE")
	}
	if s.phase != domain.PhaseRunning {
		return s.snapshot(), s.illegal("PAUSE")
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	if err := s.tm.PulseCommand(cctx, s.mode, register.BitPausePlay, true); err != nil {
		s.fault("pause pulse: " + err.Error())
		return s.snapshot(), nil
	}

	s.transition(domain.PhasePaused, "paused")
	return s.snapshot(), nil
}

// Resume continues a paused operation.
func (s *Session) Resume(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return s.snapshot(), s.terminalErr("RESUME")
	}
	if s.phase != domain.PhasePaused {
		return s.snapshot(), s.illegal("RESUME")
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	if err := s.tm.PulseCommand(cctx, s.mode, register.BitPausePlay, false); err != nil {
		s.fault("resume pulse: " + err.Error())
		return s.snapshot(), nil
	}

	s.transition(domain.PhaseRunning, "resumed")
	return s.snapshot(), nil
}

// Stop finishes the operation gracefully. A stopped RUN or PRESSURE_TEST
// session is Completed; a stopped CLEAN session returns to Idle for the next
// operation.
func (s *Session) Stop(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return s.snapshot(), s.terminalErr("STOP")
	}
	switch s.phase {
	case domain.PhaseRunning, domain.PhasePaused, domain.PhaseCleaning:
	default:
		return s.snapshot(), s.illegal("STOP")
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	if err := s.tm.PulseCommand(cctx, s.mode, register.BitStop, true); err != nil {
		s.fault("stop pulse: " + err.Error())
		return s.snapshot(), nil
	}
	s.releaseFrame(cctx)

	if s.phase == domain.PhaseCleaning {
		s.transition(domain.PhaseIdle, "clean finished")
	} else {
		s.finish(domain.PhaseCompleted, "stopped by operator")
	}
	return s.snapshot(), nil
}

// Abort stops the instrument unconditionally. The stop pulse is best-effort
// under AbortTimeout and skipped entirely when no operation ever started; the
// session transitions to Aborted even when the controller never acknowledges,
// so the operator can always regain control.
func (s *Session) Abort(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	if s.phase.Terminal() {
		return s.snapshot(), s.terminalErr("ABORT")
	}

	// Only pulse the controller when an operation actually started; aborting
	// a session that never left the proposal phases stays I/O-free.
	switch s.phase {
	case domain.PhaseRunning, domain.PhasePaused, domain.PhaseCleaning:
		cctx, cancel := context.WithTimeout(ctx, s.cfg.AbortTimeout)
		defer cancel()
		if err := s.tm.PulseCommand(cctx, s.mode, register.BitStop, true); err != nil {
			s.logger.Warn("abort: stop pulse not confirmed", ports.Err(err))
		}
		s.releaseFrame(cctx)
	}

	s.finish(domain.PhaseAborted, "aborted by operator")
	return s.snapshot(), nil
}

// Poll reads the controller's status word and advances the session when the
// controller reports completion or a fault. A transport failure during an
// active phase faults the session.
func (s *Session) Poll(ctx context.Context) (domain.SessionSnapshot, error) {
	s.acquire()
	defer s.release()

	switch s.phase {
	case domain.PhaseRunning, domain.PhasePaused, domain.PhaseCleaning:
	default:
		return s.snapshot(), nil // nothing in flight, no controller I/O
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()
	status, err := s.tm.ReadStatus(cctx)
	if err != nil {
		s.fault("status readback: " + err.Error())
		return s.snapshot(), nil
	}

	switch status {
	case register.StatusComplete:
		s.releaseFrame(cctx)
		if s.phase == domain.PhaseCleaning {
			s.transition(domain.PhaseIdle, "clean complete")
		} else {
			s.finish(domain.PhaseCompleted, "controller reported completion")
		}
	case register.StatusFault:
		s.fault("controller reported fault")
	}
	return s.snapshot(), nil
}

// Snapshot returns an immutable view of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.acquire()
	defer s.release()
	return s.snapshot()
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.acquire()
	defer s.release()
	return s.phase
}

func (s *Session) acquire() { <-s.gate }
func (s *Session) release() { s.gate <- struct{}{} }

// transition moves to a new phase, logs it, and notifies the driving agent.
func (s *Session) transition(next domain.Phase, reason string) {
	prev := s.phase
	s.phase = next
	s.logger.Info("session transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	if s.notifier != nil {
		s.notifier.OnSessionChange(s.snapshot())
	}
}

// fault escalates to the terminal Faulted phase with full diagnostic detail.
func (s *Session) fault(reason string) {
	s.faultReason = reason
	s.logger.Error("session faulted", ports.String("reason", reason))
	s.finish(domain.PhaseFaulted, reason)
}

// finish records a terminal transition and journals the session outcome.
func (s *Session) finish(terminal domain.Phase, reason string) {
	s.transition(terminal, reason)
	if s.journal == nil {
		return
	}
	record := domain.SessionRecord{
		Mode:        s.mode.String(),
		Phase:       terminal.String(),
		FaultReason: s.faultReason,
		StartedAt:   s.startedAt,
		EndedAt:     time.Now(),
	}
	jctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	if err := s.journal.Append(jctx, record); err != nil {
		s.logger.Warn("journal append failed", ports.Err(err))
	}
}

// releaseFrame clears the validation bit so the controller stops treating
// the committed frame as actionable. Failures are logged, not escalated: the
// session is resolving either way.
func (s *Session) releaseFrame(ctx context.Context) {
	if s.lastResult == nil || !s.lastResult.Committed() {
		return
	}
	if err := s.tm.Release(ctx); err != nil {
		s.logger.Warn("release validation bit failed", ports.Err(err))
	}
}

func (s *Session) snapshot() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Mode:        s.mode,
		Phase:       s.phase,
		FaultReason: s.faultReason,
	}
	if s.lastConfig != nil {
		cfg := *s.lastConfig
		snap.LastConfig = &cfg
	}
	if s.lastResult != nil {
		res := *s.lastResult
		snap.LastResult = &res
	}
	return snap
}

func (s *Session) illegal(command string) error {
	return fmt.Errorf("%w: %s not valid in phase %s", domain.ErrIllegalTransition, command, s.phase)
}

func (s *Session) terminalErr(command string) error {
	return fmt.Errorf("%w: %s after phase %s", domain.ErrSessionTerminal, command, s.phase)
}
