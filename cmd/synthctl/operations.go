package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nanoforge-io/synthctl/internal/adapters/fs"
	"github.com/nanoforge-io/synthctl/internal/cliconfig"
	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/pkg/instrument"
	"github.com/nanoforge-io/synthctl/pkg/log"
	"github.com/nanoforge-io/synthctl/plugins/limitswatcher"
)

// pollInterval is how often the controller status word is checked while an
// operation is in flight.
const pollInterval = 500 * time.Millisecond

// runOperation drives one full session: propose, start, poll to completion.
// Ctrl-C aborts the instrument before exiting.
func runOperation(ctx context.Context, cfg cliconfig.Config, runCfg domain.RunConfiguration, logger log.Logger) error {
	inst, err := instrument.New(instrument.Config{
		Simulate:       cfg.Simulate,
		Addr:           cfg.Addr,
		Rack:           cfg.Rack,
		Slot:           cfg.Slot,
		DBNumber:       cfg.DBNumber,
		Timeout:        cfg.Timeout,
		CommandTimeout: cfg.CommandTimeout,
		AbortTimeout:   cfg.AbortTimeout,
		LimitsFile:     cfg.LimitsFile,
		JournalDir:     cfg.JournalDir,
	},
		instrument.WithLogger(logger),
		instrument.WithNotifier(consoleNotifier{}),
	)
	if err != nil {
		return err
	}
	defer inst.Close()

	if cfg.WatchLimits {
		watcher := limitswatcher.New(cfg.LimitsFile, inst.Limits(), logger, limitswatcher.DefaultConfig())
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	result, err := inst.Propose(runCfg)
	if err != nil {
		return err
	}
	if !result.Accepted {
		for _, v := range result.Violations {
			fmt.Println("rejected:", v)
		}
		return fmt.Errorf("%d parameter(s) out of range", len(result.Violations))
	}

	snap, err := inst.Start(ctx)
	if err != nil {
		return err
	}
	if snap.Phase == domain.PhaseFaulted {
		return fmt.Errorf("session faulted: %s", snap.FaultReason)
	}

	return watchSession(ctx, inst, snap)
}

// watchSession polls until the session resolves. The configured run
// duration bounds the wait: when the controller has not reported completion
// by then (the simulator never does), the session is stopped gracefully.
func watchSession(ctx context.Context, inst *instrument.Instrument, snap instrument.SessionSnapshot) error {
	duration := time.Duration(snap.LastConfig.Duration() * float64(time.Minute))
	deadline := time.NewTimer(duration)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Operator interrupt: regain control unconditionally.
			abortCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			snap, err := inst.Abort(abortCtx)
			if err != nil && !errors.Is(err, domain.ErrSessionTerminal) {
				return err
			}
			return fmt.Errorf("session %s", snap.Phase)

		case <-deadline.C:
			snap, err := inst.Stop(ctx)
			if err != nil {
				return err
			}
			return reportOutcome(snap)

		case <-ticker.C:
			snap, err := inst.Poll(ctx)
			if err != nil {
				return err
			}
			if snap.Phase.Terminal() || snap.Phase == domain.PhaseIdle {
				return reportOutcome(snap)
			}
		}
	}
}

func reportOutcome(snap instrument.SessionSnapshot) error {
	switch snap.Phase {
	case domain.PhaseFaulted:
		return fmt.Errorf("session faulted: %s", snap.FaultReason)
	case domain.PhaseAborted:
		return fmt.Errorf("session aborted")
	default:
		fmt.Printf("session %s\n", snap.Phase)
		return nil
	}
}

// showHistory prints journaled session outcomes.
func showHistory(ctx context.Context, cfg cliconfig.Config) error {
	journal := fs.NewSessionJournal(cfg.JournalDir)
	records, err := journal.Load(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-14s %-10s", r.EndedAt.Format(time.RFC3339), r.Mode, r.Phase)
		if r.FaultReason != "" {
			line += "  " + r.FaultReason
		}
		fmt.Println(line)
	}
	return nil
}

// consoleNotifier relays session phase changes to the operator.
type consoleNotifier struct{}

func (consoleNotifier) OnSessionChange(snap domain.SessionSnapshot) {
	if snap.FaultReason != "" {
		fmt.Printf("-> %s (%s): %s\n", snap.Phase, snap.Mode, snap.FaultReason)
		return
	}
	fmt.Printf("-> %s (%s)\n", snap.Phase, snap.Mode)
}
