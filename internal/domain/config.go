package domain

import "fmt"

// ChipID selects the mixer geometry installed in the instrument.
// Wire values follow the controller's tag list.
type ChipID int16

const (
	ChipBaffle      ChipID = 0
	ChipHerringbone ChipID = 1
)

// String returns the controller tag-list name of the chip.
func (c ChipID) String() string {
	switch c {
	case ChipBaffle:
		return "BAFFLE"
	case ChipHerringbone:
		return "HERRINGBONE"
	default:
		return fmt.Sprintf("ChipID(%d)", int16(c))
	}
}

// Valid reports whether the chip value is part of the controller's tag list.
func (c ChipID) Valid() bool {
	return c == ChipBaffle || c == ChipHerringbone
}

// ParseChipID converts a tag-list name to a ChipID.
func ParseChipID(s string) (ChipID, error) {
	switch s {
	case "BAFFLE":
		return ChipBaffle, nil
	case "HERRINGBONE":
		return ChipHerringbone, nil
	default:
		return 0, fmt.Errorf("unknown chip %q (want BAFFLE or HERRINGBONE)", s)
	}
}

// ManifoldID selects the reservoir/manifold size.
type ManifoldID int16

const (
	ManifoldSmall ManifoldID = 0
	ManifoldLarge ManifoldID = 1
)

// String returns the controller tag-list name of the manifold.
func (m ManifoldID) String() string {
	switch m {
	case ManifoldSmall:
		return "SMALL"
	case ManifoldLarge:
		return "LARGE"
	default:
		return fmt.Sprintf("ManifoldID(%d)", int16(m))
	}
}

// Valid reports whether the manifold value is part of the controller's tag list.
func (m ManifoldID) Valid() bool {
	return m == ManifoldSmall || m == ManifoldLarge
}

// ParseManifoldID converts a tag-list name to a ManifoldID.
func ParseManifoldID(s string) (ManifoldID, error) {
	switch s {
	case "SMALL":
		return ManifoldSmall, nil
	case "LARGE":
		return ManifoldLarge, nil
	default:
		return 0, fmt.Errorf("unknown manifold %q (want SMALL or LARGE)", s)
	}
}

// Mode is the requested operating mode of the instrument.
type Mode int16

const (
	ModeRun          Mode = 1
	ModeClean        Mode = 2
	ModePressureTest Mode = 3
)

// String returns the controller tag-list name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRun:
		return "RUN"
	case ModeClean:
		return "CLEAN"
	case ModePressureTest:
		return "PRESSURE_TEST"
	default:
		return fmt.Sprintf("Mode(%d)", int16(m))
	}
}

// Valid reports whether the mode value is part of the controller's tag list.
func (m Mode) Valid() bool {
	return m == ModeRun || m == ModeClean || m == ModePressureTest
}

// ParseMode converts a tag-list name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "RUN":
		return ModeRun, nil
	case "CLEAN":
		return ModeClean, nil
	case "PRESSURE_TEST":
		return ModePressureTest, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want RUN, CLEAN or PRESSURE_TEST)", s)
	}
}

// RunConfiguration is a candidate synthesis or maintenance instruction.
//
// A RunConfiguration is a plain value: it is copied into the session on
// acceptance and never mutated afterwards. A changed parameter requires a
// fresh validation pass.
type RunConfiguration struct {
	// TotalFlowRate is the sum of aqueous and organic phase flow in mL/min.
	// Single precision: the controller's REAL registers are float32, and the
	// accepted configuration must round-trip the register frame bit-exact.
	TotalFlowRate float32

	// FRRAqueous and FRRSolvent are the relative parts of the flow rate
	// ratio, aqueous:solvent. Both must be strictly positive integers.
	FRRAqueous int
	FRRSolvent int

	// TargetVolume is the total output volume sought in mL. Single precision,
	// as TotalFlowRate.
	TargetVolume float32

	// Temperature is the process temperature in degrees Celsius, used by
	// the controller for viscosity compensation. Single precision, as
	// TotalFlowRate.
	Temperature float32

	// Chip is the selected mixer geometry.
	Chip ChipID

	// Manifold is the selected reservoir/manifold size.
	Manifold ManifoldID

	// Mode is the requested operating mode.
	Mode Mode
}

// Ratio returns the aqueous:solvent flow rate ratio as a float.
// Returns 0 when the solvent part is zero (an invalid configuration).
func (c RunConfiguration) Ratio() float64 {
	if c.FRRSolvent == 0 {
		return 0
	}
	return float64(c.FRRAqueous) / float64(c.FRRSolvent)
}

// Duration returns the implied run duration in minutes (volume over flow).
// Returns 0 when the flow rate is zero (an invalid configuration).
func (c RunConfiguration) Duration() float64 {
	if c.TotalFlowRate == 0 {
		return 0
	}
	return float64(c.TargetVolume) / float64(c.TotalFlowRate)
}
