// Package register implements the fixed binary register layout shared with
// the instrument controller.
//
// The layout is a bit-exact contract: every field sits at a fixed byte offset
// and uses the controller's native register width (IEEE-754 single precision
// for REAL fields, big-endian two's-complement 16-bit integers for INT and
// enum fields). The encoder and decoder perform no I/O.
package register

// Config frame offsets. The config frame is the block written by the
// transaction manager and verified by bit-exact readback.
const (
	OffTotalFlowRate = 0  // float32
	OffFRRAqueous    = 4  // int16
	OffFRRSolvent    = 6  // int16
	OffTargetVolume  = 8  // float32
	OffTemperature   = 12 // float32
	OffChip          = 16 // int16
	OffManifold      = 18 // int16
	OffMode          = 20 // int16
	OffValidation    = 22 // byte, bit 0

	// ValidationBit is the bit position of the validation flag within the
	// byte at OffValidation. The controller polls it to decide whether the
	// config frame is ready to act on.
	ValidationBit = 0

	// ConfigLen is the length of the config fields, excluding the
	// validation byte.
	ConfigLen = 22

	// FrameSize is the full verified frame: config fields plus the
	// validation byte.
	FrameSize = 23
)

// Control and status region. These offsets sit outside the verified config
// frame; command bits are pulsed individually and the status word is written
// by the controller.
const (
	OffCmdRun          = 24 // byte, command bits for RUN
	OffCmdClean        = 25 // byte, command bits for CLEAN
	OffCmdPressureTest = 26 // byte, command bits for PRESSURE_TEST
	OffStatus          = 28 // int16, controller status word

	// BlockSize is the full extent of the experiment data block.
	BlockSize = 30
)

// Command bit positions within a mode's command byte.
const (
	BitStart     = 0
	BitPausePlay = 1
	BitConfirm   = 2
	BitStop      = 3
)

// Controller status word values.
const (
	StatusIdle     int16 = 0
	StatusBusy     int16 = 1
	StatusComplete int16 = 2
	StatusFault    int16 = 3
)

// FieldSpec names one config frame field for diagnostics.
type FieldSpec struct {
	Name   string
	Offset int
	Size   int
}

// Fields returns the config frame fields in offset order, including the
// validation byte. Used by the transaction manager to label readback
// mismatches.
func Fields() []FieldSpec {
	return []FieldSpec{
		{Name: "totalFlowRate", Offset: OffTotalFlowRate, Size: 4},
		{Name: "flowRateRatioAqueous", Offset: OffFRRAqueous, Size: 2},
		{Name: "flowRateRatioSolvent", Offset: OffFRRSolvent, Size: 2},
		{Name: "targetVolume", Offset: OffTargetVolume, Size: 4},
		{Name: "temperature", Offset: OffTemperature, Size: 4},
		{Name: "chipId", Offset: OffChip, Size: 2},
		{Name: "manifold", Offset: OffManifold, Size: 2},
		{Name: "mode", Offset: OffMode, Size: 2},
		{Name: "validationBit", Offset: OffValidation, Size: 1},
	}
}
