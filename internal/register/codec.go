package register

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nanoforge-io/synthctl/internal/domain"
)

// Frame is the wire-level representation of one RunConfiguration plus the
// commit flag. It is created by Encode with the validation bit clear and is
// exclusively owned by the transaction manager until the transaction
// resolves.
type Frame [FrameSize]byte

// Bytes returns the raw frame bytes.
func (f Frame) Bytes() []byte {
	return f[:]
}

// Config returns the config fields, excluding the validation byte.
func (f Frame) Config() []byte {
	return f[:ConfigLen]
}

// CommitFlag reports whether the validation bit is set.
func (f Frame) CommitFlag() bool {
	return f[OffValidation]&(1<<ValidationBit) != 0
}

// WithCommitFlag returns a copy of the frame with the validation bit set or
// cleared.
func (f Frame) WithCommitFlag(set bool) Frame {
	out := f
	if set {
		out[OffValidation] |= 1 << ValidationBit
	} else {
		out[OffValidation] &^= 1 << ValidationBit
	}
	return out
}

// Encode converts a validated configuration to its register frame. The
// validation bit is left clear; setting it is the transaction manager's job.
//
// Encode trusts that only validated configurations reach it: values outside
// the int16 range are a precondition violation upstream, not a runtime
// condition handled here.
func Encode(cfg domain.RunConfiguration) Frame {
	var f Frame
	putFloat32(f[:], OffTotalFlowRate, cfg.TotalFlowRate)
	putInt16(f[:], OffFRRAqueous, int16(cfg.FRRAqueous))
	putInt16(f[:], OffFRRSolvent, int16(cfg.FRRSolvent))
	putFloat32(f[:], OffTargetVolume, cfg.TargetVolume)
	putFloat32(f[:], OffTemperature, cfg.Temperature)
	putInt16(f[:], OffChip, int16(cfg.Chip))
	putInt16(f[:], OffManifold, int16(cfg.Manifold))
	putInt16(f[:], OffMode, int16(cfg.Mode))
	return f
}

// Decode converts a register frame back to a RunConfiguration and the commit
// flag. It fails when enum fields hold values outside the controller's tag
// list, which indicates a corrupted or foreign frame.
func Decode(f Frame) (domain.RunConfiguration, bool, error) {
	cfg := domain.RunConfiguration{
		TotalFlowRate: getFloat32(f[:], OffTotalFlowRate),
		FRRAqueous:    int(getInt16(f[:], OffFRRAqueous)),
		FRRSolvent:    int(getInt16(f[:], OffFRRSolvent)),
		TargetVolume:  getFloat32(f[:], OffTargetVolume),
		Temperature:   getFloat32(f[:], OffTemperature),
		Chip:          domain.ChipID(getInt16(f[:], OffChip)),
		Manifold:      domain.ManifoldID(getInt16(f[:], OffManifold)),
		Mode:          domain.Mode(getInt16(f[:], OffMode)),
	}

	if !cfg.Chip.Valid() {
		return domain.RunConfiguration{}, false, fmt.Errorf("%w: chip value %d", domain.ErrInvalidFrame, int16(cfg.Chip))
	}
	if !cfg.Manifold.Valid() {
		return domain.RunConfiguration{}, false, fmt.Errorf("%w: manifold value %d", domain.ErrInvalidFrame, int16(cfg.Manifold))
	}
	if !cfg.Mode.Valid() {
		return domain.RunConfiguration{}, false, fmt.Errorf("%w: mode value %d", domain.ErrInvalidFrame, int16(cfg.Mode))
	}

	return cfg, f.CommitFlag(), nil
}

// FrameFromBytes copies a raw block into a Frame.
// The block must be at least FrameSize bytes.
func FrameFromBytes(b []byte) (Frame, error) {
	var f Frame
	if len(b) < FrameSize {
		return f, fmt.Errorf("%w: short block (%d bytes)", domain.ErrInvalidFrame, len(b))
	}
	copy(f[:], b[:FrameSize])
	return f, nil
}

// S7 registers are big-endian.

func putFloat32(b []byte, off int, v float32) {
	binary.BigEndian.PutUint32(b[off:], math.Float32bits(v))
}

func getFloat32(b []byte, off int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b[off:]))
}

func putInt16(b []byte, off int, v int16) {
	binary.BigEndian.PutUint16(b[off:], uint16(v))
}

func getInt16(b []byte, off int) int16 {
	return int16(binary.BigEndian.Uint16(b[off:]))
}
