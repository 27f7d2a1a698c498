// Package txn orchestrates verified register transactions against the
// controller.
//
// The controller is an external device that may silently drop or corrupt a
// partial register write; bit-exact readback is the only correctness
// guarantee available. The manager therefore never leaves the validation bit
// set over a frame that did not read back exactly as written.
package txn

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
	"github.com/nanoforge-io/synthctl/internal/register"
)

// Manager owns the validation bit protocol. It is the only component that
// writes the config frame; the session state machine is its only caller.
type Manager struct {
	transport ports.Transport
	logger    ports.Logger
}

// NewManager creates a transaction manager over the given transport.
func NewManager(transport ports.Transport, logger ports.Logger) *Manager {
	return &Manager{transport: transport, logger: logger}
}

// Commit runs the write-verify-commit-or-rollback sequence:
//
//  1. Write the config fields, all except the validation bit.
//  2. Set the validation bit.
//  3. Read back the full frame.
//  4. Compare every field bit-exact against what was written.
//  5. Exact match: Committed. Any mismatch: clear the validation bit and
//     report RolledBack with the mismatched fields.
//
// A transport failure at any step yields Unreachable. Nothing is retried;
// remediation is the caller's decision.
func (m *Manager) Commit(ctx context.Context, frame register.Frame) domain.TransactionResult {
	if err := m.transport.WriteBlock(ctx, 0, frame.Config()); err != nil {
		return m.unreachable("write config frame", err)
	}

	committed := frame.WithCommitFlag(true)
	if err := m.transport.WriteBlock(ctx, register.OffValidation, committed.Bytes()[register.OffValidation:]); err != nil {
		return m.unreachable("set validation bit", err)
	}

	readback, err := m.transport.ReadBlock(ctx, 0, register.FrameSize)
	if err != nil {
		return m.unreachable("read back frame", err)
	}

	mismatches := diff(committed, readback)
	if len(mismatches) == 0 {
		m.logger.Info("transaction committed")
		return domain.TransactionResult{Outcome: domain.TxCommitted}
	}

	// Never leave the validation bit set over a mismatched frame.
	if err := m.clearValidationBit(ctx); err != nil {
		return m.unreachable("clear validation bit after mismatch", err)
	}

	m.logger.Error("transaction rolled back", ports.Int("mismatches", len(mismatches)))
	return domain.TransactionResult{Outcome: domain.TxRolledBack, Mismatches: mismatches}
}

// Release clears the validation bit. Called when a session resolves so the
// controller stops treating the frame as actionable.
func (m *Manager) Release(ctx context.Context) error {
	return m.clearValidationBit(ctx)
}

// PulseCommand sets or clears one command bit for a mode, enforcing the
// controller's exclusivity rules:
//
//   - setting START in one mode clears START in the other modes
//   - setting STOP clears START, PAUSE_PLAY and CONFIRM in that mode
//
// Every write is verified by reading the byte back.
func (m *Manager) PulseCommand(ctx context.Context, mode domain.Mode, bit int, set bool) error {
	if set && bit == register.BitStart {
		for _, other := range []domain.Mode{domain.ModeRun, domain.ModeClean, domain.ModePressureTest} {
			if other == mode {
				continue
			}
			if err := m.writeCommandBit(ctx, other, register.BitStart, false); err != nil {
				return err
			}
		}
	}
	if set && bit == register.BitStop {
		for _, b := range []int{register.BitStart, register.BitPausePlay, register.BitConfirm} {
			if err := m.writeCommandBit(ctx, mode, b, false); err != nil {
				return err
			}
		}
	}
	return m.writeCommandBit(ctx, mode, bit, set)
}

// ClearCommands zeroes the command bytes of all three modes.
func (m *Manager) ClearCommands(ctx context.Context) error {
	for _, mode := range []domain.Mode{domain.ModeRun, domain.ModeClean, domain.ModePressureTest} {
		off := cmdOffset(mode)
		if err := m.transport.WriteBlock(ctx, off, []byte{0}); err != nil {
			return fmt.Errorf("clear %s commands: %w", mode, err)
		}
	}
	return nil
}

// ReadStatus reads the controller's status word.
func (m *Manager) ReadStatus(ctx context.Context) (int16, error) {
	b, err := m.transport.ReadBlock(ctx, register.OffStatus, 2)
	if err != nil {
		return 0, fmt.Errorf("read status word: %w", err)
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (m *Manager) writeCommandBit(ctx context.Context, mode domain.Mode, bit int, set bool) error {
	off := cmdOffset(mode)

	cur, err := m.transport.ReadBlock(ctx, off, 1)
	if err != nil {
		return fmt.Errorf("read %s command byte: %w", mode, err)
	}

	b := cur[0]
	if set {
		b |= 1 << bit
	} else {
		b &^= 1 << bit
	}

	if err := m.transport.WriteBlock(ctx, off, []byte{b}); err != nil {
		return fmt.Errorf("write %s command byte: %w", mode, err)
	}

	verify, err := m.transport.ReadBlock(ctx, off, 1)
	if err != nil {
		return fmt.Errorf("verify %s command byte: %w", mode, err)
	}
	if verify[0] != b {
		return fmt.Errorf("%s command bit %d did not hold (wrote 0x%02x, read 0x%02x)", mode, bit, b, verify[0])
	}
	return nil
}

func (m *Manager) clearValidationBit(ctx context.Context) error {
	return m.transport.WriteBlock(ctx, register.OffValidation, []byte{0})
}

func (m *Manager) unreachable(step string, err error) domain.TransactionResult {
	m.logger.Error("transaction unreachable", ports.String("step", step), ports.Err(err))
	return domain.TransactionResult{
		Outcome: domain.TxUnreachable,
		Detail:  fmt.Sprintf("%s: %v", step, err),
	}
}

func cmdOffset(mode domain.Mode) int {
	switch mode {
	case domain.ModeClean:
		return register.OffCmdClean
	case domain.ModePressureTest:
		return register.OffCmdPressureTest
	default:
		return register.OffCmdRun
	}
}

// diff compares the written frame against the readback, field by field.
func diff(wrote register.Frame, readback []byte) []domain.FieldMismatch {
	var mismatches []domain.FieldMismatch
	for _, f := range register.Fields() {
		w := wrote.Bytes()[f.Offset : f.Offset+f.Size]
		if f.Offset+f.Size > len(readback) {
			mismatches = append(mismatches, domain.FieldMismatch{
				Field:  f.Name,
				Offset: f.Offset,
				Wrote:  hex.EncodeToString(w),
				Read:   "",
			})
			continue
		}
		r := readback[f.Offset : f.Offset+f.Size]
		if !bytes.Equal(w, r) {
			mismatches = append(mismatches, domain.FieldMismatch{
				Field:  f.Name,
				Offset: f.Offset,
				Wrote:  hex.EncodeToString(w),
				Read:   hex.EncodeToString(r),
			})
		}
	}
	return mismatches
}
