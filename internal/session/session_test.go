package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nanoforge-io/synthctl/internal/adapters/log"
	"github.com/nanoforge-io/synthctl/internal/adapters/sim"
	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
	"github.com/nanoforge-io/synthctl/internal/register"
	"github.com/nanoforge-io/synthctl/internal/txn"
	"github.com/nanoforge-io/synthctl/internal/validate"
)

func goodConfig() domain.RunConfiguration {
	return domain.RunConfiguration{
		TotalFlowRate: 5.0,
		FRRAqueous:    3,
		FRRSolvent:    1,
		TargetVolume:  2.0,
		Temperature:   22.0,
		Chip:          domain.ChipHerringbone,
		Manifold:      domain.ManifoldSmall,
		Mode:          domain.ModeRun,
	}
}

// phaseRecorder captures every notified phase in order.
type phaseRecorder struct {
	phases []domain.Phase
}

func (r *phaseRecorder) OnSessionChange(snap domain.SessionSnapshot) {
	r.phases = append(r.phases, snap.Phase)
}

// memJournal is an in-memory ports.SessionJournal.
type memJournal struct {
	records []domain.SessionRecord
}

func (j *memJournal) Append(_ context.Context, r domain.SessionRecord) error {
	j.records = append(j.records, r)
	return nil
}

func (j *memJournal) Load(context.Context) ([]domain.SessionRecord, error) {
	return j.records, nil
}

func newTestSession(tr *sim.Transport, rec *phaseRecorder, journal *memJournal) *Session {
	tm := txn.NewManager(tr, log.NewNoopLogger())
	limits := validate.NewStore(validate.DefaultLimits())
	var notifier ports.Notifier
	if rec != nil {
		notifier = rec
	}
	var j ports.SessionJournal
	if journal != nil {
		j = journal
	}
	return New(DefaultConfig(), tm, limits, log.NewNoopLogger(), notifier, j)
}

func TestRunLifecycle(t *testing.T) {
	tr := sim.New()
	rec := &phaseRecorder{}
	s := newTestSession(tr, rec, nil)
	ctx := context.Background()

	result, err := s.Propose(goodConfig())
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("propose rejected: %v", result.Violations)
	}
	if got := s.Phase(); got != domain.PhaseLoaded {
		t.Fatalf("phase after propose = %s, want Loaded", got)
	}

	snap, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseRunning {
		t.Fatalf("phase after start = %s (fault: %s)", snap.Phase, snap.FaultReason)
	}

	// The controller holds the committed frame and the RUN start bit.
	if v := tr.Peek(register.OffValidation, 1); v[0]&1 == 0 {
		t.Fatal("validation bit not set while running")
	}
	if b := tr.Peek(register.OffCmdRun, 1); b[0] != 1<<register.BitStart {
		t.Fatalf("RUN command byte = 0x%02x, want START", b[0])
	}

	if snap, err = s.Pause(ctx); err != nil || snap.Phase != domain.PhasePaused {
		t.Fatalf("pause: phase=%s err=%v", snap.Phase, err)
	}
	if snap, err = s.Resume(ctx); err != nil || snap.Phase != domain.PhaseRunning {
		t.Fatalf("resume: phase=%s err=%v", snap.Phase, err)
	}
	if snap, err = s.Stop(ctx); err != nil || snap.Phase != domain.PhaseCompleted {
		t.Fatalf("stop: phase=%s err=%v", snap.Phase, err)
	}

	// Stop releases the frame: the validation bit is cleared.
	if v := tr.Peek(register.OffValidation, 1); v[0]&1 != 0 {
		t.Fatal("validation bit still set after stop")
	}

	want := []domain.Phase{
		domain.PhaseConfiguring,
		domain.PhaseValidating,
		domain.PhaseLoaded,
		domain.PhaseRunning,
		domain.PhasePaused,
		domain.PhaseRunning,
		domain.PhaseCompleted,
	}
	if len(rec.phases) != len(want) {
		t.Fatalf("notified phases %v, want %v", rec.phases, want)
	}
	for i, p := range want {
		if rec.phases[i] != p {
			t.Fatalf("notified phases %v, want %v", rec.phases, want)
		}
	}
}

func TestProposeRejectionReturnsToConfiguring(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)

	cfg := goodConfig()
	cfg.TotalFlowRate = 0.5

	result, err := s.Propose(cfg)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection")
	}
	if got := s.Phase(); got != domain.PhaseConfiguring {
		t.Fatalf("phase after rejection = %s, want Configuring", got)
	}

	// No controller I/O may happen on rejection.
	for _, b := range tr.Peek(0, register.BlockSize) {
		if b != 0 {
			t.Fatal("controller block touched by a rejected proposal")
		}
	}

	// A corrected proposal is accepted from Configuring.
	if result, err = s.Propose(goodConfig()); err != nil || !result.Accepted {
		t.Fatalf("corrected propose: accepted=%v err=%v", result.Accepted, err)
	}
}

func TestStartFaultsOnRollback(t *testing.T) {
	tr := sim.New(sim.WithCorruption(register.OffTemperature))
	journal := &memJournal{}
	s := newTestSession(tr, nil, journal)
	ctx := context.Background()

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	snap, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseFaulted {
		t.Fatalf("phase = %s, want Faulted", snap.Phase)
	}
	if snap.FaultReason == "" {
		t.Fatal("faulted session must carry a reason")
	}
	if snap.LastResult == nil || snap.LastResult.Outcome != domain.TxRolledBack {
		t.Fatalf("last result = %+v, want rolled back", snap.LastResult)
	}

	// Never reach Running, and never leave the validation bit set.
	if v := tr.Peek(register.OffValidation, 1); v[0]&1 != 0 {
		t.Fatal("validation bit set after rollback")
	}

	if len(journal.records) != 1 || journal.records[0].Phase != "Faulted" {
		t.Fatalf("journal records = %+v", journal.records)
	}
}

func TestStartFaultsOnUnreachable(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	tr.SetUnreachable(true)

	snap, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseFaulted {
		t.Fatalf("phase = %s, want Faulted", snap.Phase)
	}
	if snap.LastResult == nil || snap.LastResult.Outcome != domain.TxUnreachable {
		t.Fatalf("last result = %+v, want unreachable", snap.LastResult)
	}
}

func TestIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		call func(s *Session, ctx context.Context) error
	}{
		{"pause from idle", func(s *Session, ctx context.Context) error {
			_, err := s.Pause(ctx)
			return err
		}},
		{"resume from idle", func(s *Session, ctx context.Context) error {
			_, err := s.Resume(ctx)
			return err
		}},
		{"stop from idle", func(s *Session, ctx context.Context) error {
			_, err := s.Stop(ctx)
			return err
		}},
		{"start without proposal", func(s *Session, ctx context.Context) error {
			_, err := s.Start(ctx)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(sim.New(), nil, nil)
			if err := tc.call(s, context.Background()); !errors.Is(err, domain.ErrIllegalTransition) {
				t.Fatalf("expected ErrIllegalTransition, got %v", err)
			}
			if got := s.Phase(); got != domain.PhaseIdle {
				t.Fatalf("illegal command moved the phase to %s", got)
			}
		})
	}
}

func TestTerminalSessionRefusesCommands(t *testing.T) {
	tr := sim.New(sim.WithCorruption(0))
	s := newTestSession(tr, nil, nil)
	ctx := context.Background()

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if snap, err := s.Start(ctx); err != nil || snap.Phase != domain.PhaseFaulted {
		t.Fatalf("start: phase=%s err=%v", snap.Phase, err)
	}

	if _, err := s.Propose(goodConfig()); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Fatalf("propose after fault: %v", err)
	}
	if _, err := s.Start(ctx); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Fatalf("start after fault: %v", err)
	}
	if _, err := s.Abort(ctx); !errors.Is(err, domain.ErrSessionTerminal) {
		t.Fatalf("abort after fault: %v", err)
	}
}

func TestAbortAlwaysTerminates(t *testing.T) {
	// The controller goes dark after start, so the abort stop pulse can
	// never be confirmed. Abort must still reach Aborted within its budget.
	tr := sim.New()
	journal := &memJournal{}
	s := newTestSession(tr, nil, journal)
	ctx := context.Background()

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if snap, err := s.Start(ctx); err != nil || snap.Phase != domain.PhaseRunning {
		t.Fatalf("start: phase=%s err=%v", snap.Phase, err)
	}

	tr.SetUnreachable(true)

	start := time.Now()
	snap, err := s.Abort(ctx)
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if snap.Phase != domain.PhaseAborted {
		t.Fatalf("phase = %s, want Aborted", snap.Phase)
	}
	if elapsed := time.Since(start); elapsed > DefaultConfig().AbortTimeout+time.Second {
		t.Fatalf("abort took %v, over the stop-pulse budget", elapsed)
	}
	if len(journal.records) != 1 || journal.records[0].Phase != "Aborted" {
		t.Fatalf("journal records = %+v", journal.records)
	}
}

func TestAbortFromLoaded(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	snap, err := s.Abort(context.Background())
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if snap.Phase != domain.PhaseAborted {
		t.Fatalf("phase = %s, want Aborted", snap.Phase)
	}
	// Nothing was committed or started, so nothing reaches the controller.
	for i, b := range tr.Peek(0, register.BlockSize) {
		if b != 0 {
			t.Fatalf("controller byte %d = 0x%02x touched by abort before start", i, b)
		}
	}
}

func TestAbortFromIdleStaysLocal(t *testing.T) {
	tr := sim.New()
	journal := &memJournal{}
	s := newTestSession(tr, nil, journal)

	snap, err := s.Abort(context.Background())
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if snap.Phase != domain.PhaseAborted {
		t.Fatalf("phase = %s, want Aborted", snap.Phase)
	}
	for i, b := range tr.Peek(0, register.BlockSize) {
		if b != 0 {
			t.Fatalf("controller byte %d = 0x%02x touched by idle abort", i, b)
		}
	}
	if len(journal.records) != 1 || journal.records[0].Phase != "Aborted" {
		t.Fatalf("journal records = %+v", journal.records)
	}
}

func TestCleanReturnsToIdle(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)
	ctx := context.Background()

	cfg := domain.RunConfiguration{
		Chip:     domain.ChipHerringbone,
		Manifold: domain.ManifoldSmall,
		Mode:     domain.ModeClean,
	}
	result, err := s.Propose(cfg)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("clean proposal rejected: %v", result.Violations)
	}

	snap, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseCleaning {
		t.Fatalf("phase = %s, want Cleaning", snap.Phase)
	}
	if b := tr.Peek(register.OffCmdClean, 1); b[0] != 1<<register.BitStart {
		t.Fatalf("CLEAN command byte = 0x%02x, want START", b[0])
	}

	if snap, err = s.Stop(ctx); err != nil || snap.Phase != domain.PhaseIdle {
		t.Fatalf("stop: phase=%s err=%v", snap.Phase, err)
	}

	// The session is reusable: a fresh RUN can be proposed and started.
	if result, err = s.Propose(goodConfig()); err != nil || !result.Accepted {
		t.Fatalf("propose after clean: accepted=%v err=%v", result.Accepted, err)
	}
	if snap, err = s.Start(ctx); err != nil || snap.Phase != domain.PhaseRunning {
		t.Fatalf("start after clean: phase=%s err=%v", snap.Phase, err)
	}
}

func TestPollCompletion(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)
	ctx := context.Background()

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Still busy: no transition.
	tr.SetStatus(register.StatusBusy)
	if snap, err := s.Poll(ctx); err != nil || snap.Phase != domain.PhaseRunning {
		t.Fatalf("poll busy: phase=%s err=%v", snap.Phase, err)
	}

	tr.SetStatus(register.StatusComplete)
	snap, err := s.Poll(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if snap.Phase != domain.PhaseCompleted {
		t.Fatalf("phase = %s, want Completed", snap.Phase)
	}
	if v := tr.Peek(register.OffValidation, 1); v[0]&1 != 0 {
		t.Fatal("validation bit still set after completion")
	}
}

func TestPollFault(t *testing.T) {
	tr := sim.New()
	s := newTestSession(tr, nil, nil)
	ctx := context.Background()

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.SetStatus(register.StatusFault)
	snap, err := s.Poll(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if snap.Phase != domain.PhaseFaulted {
		t.Fatalf("phase = %s, want Faulted", snap.Phase)
	}
}

func TestPollIdleDoesNothing(t *testing.T) {
	tr := sim.New()
	tr.SetUnreachable(true) // any I/O would fault
	s := newTestSession(tr, nil, nil)

	snap, err := s.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if snap.Phase != domain.PhaseIdle {
		t.Fatalf("phase = %s, want Idle", snap.Phase)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := newTestSession(sim.New(), nil, nil)

	if _, err := s.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	snap := s.Snapshot()
	if snap.LastConfig == nil {
		t.Fatal("snapshot missing last config")
	}
	snap.LastConfig.TotalFlowRate = 99.0

	if got := s.Snapshot().LastConfig.TotalFlowRate; got != 5.0 {
		t.Fatalf("snapshot mutation leaked into the session: %v", got)
	}
}
