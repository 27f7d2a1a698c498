package instrument

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nanoforge-io/synthctl/internal/adapters/sim"
	"github.com/nanoforge-io/synthctl/internal/domain"
)

func goodConfig() RunConfiguration {
	return RunConfiguration{
		TotalFlowRate: 5.0,
		FRRAqueous:    3,
		FRRSolvent:    1,
		TargetVolume:  2.0,
		Temperature:   22.0,
		Chip:          ChipHerringbone,
		Manifold:      ManifoldSmall,
		Mode:          ModeRun,
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Simulate = false
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without addr, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Timeout = 0
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for zero timeout, got %v", err)
	}
}

func TestFullCycleAgainstSimulator(t *testing.T) {
	inst, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	ctx := context.Background()

	result, err := inst.Propose(goodConfig())
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("propose rejected: %v", result.Violations)
	}

	snap, err := inst.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseRunning {
		t.Fatalf("phase = %s (fault: %s)", snap.Phase, snap.FaultReason)
	}

	if snap, err = inst.Stop(ctx); err != nil || snap.Phase != domain.PhaseCompleted {
		t.Fatalf("stop: phase=%s err=%v", snap.Phase, err)
	}
}

func TestWithTransport(t *testing.T) {
	tr := sim.New(sim.WithCorruption(0))
	inst, err := New(DefaultConfig(), WithTransport(tr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	if _, err := inst.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	snap, err := inst.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhaseFaulted {
		t.Fatalf("phase = %s, want Faulted via injected transport", snap.Phase)
	}
}

func TestWithNotifier(t *testing.T) {
	var phases []domain.Phase
	notifier := NotifierFunc(func(snap SessionSnapshot) {
		phases = append(phases, snap.Phase)
	})

	inst, err := New(DefaultConfig(), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	if _, err := inst.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(phases) == 0 || phases[len(phases)-1] != domain.PhaseLoaded {
		t.Fatalf("notified phases = %v, want trailing Loaded", phases)
	}
}

func TestLimitsFileApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.toml")
	if err := os.WriteFile(path, []byte("tfr_max = 4.0\n"), 0o644); err != nil {
		t.Fatalf("write limits: %v", err)
	}

	cfg := DefaultConfig()
	cfg.LimitsFile = path
	inst, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	// 5 mL/min exceeds the tightened ceiling.
	result, err := inst.Propose(goodConfig())
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.Accepted {
		t.Fatal("proposal accepted despite tightened limits file")
	}
}

func TestWithLimits(t *testing.T) {
	lim := DefaultLimits()
	lim.TFRMin = 6.0

	inst, err := New(DefaultConfig(), WithLimits(lim))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	result, err := inst.Propose(goodConfig())
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.Accepted {
		t.Fatal("proposal accepted despite overridden limits")
	}
}

func TestJournalDirEnablesHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.JournalDir = dir

	inst, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	ctx := context.Background()
	if _, err := inst.Propose(goodConfig()); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := inst.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := inst.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "sessions.json")); err != nil {
		t.Fatalf("journal file not written: %v", err)
	}
}
