package register

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nanoforge-io/synthctl/internal/domain"
)

func testConfig() domain.RunConfiguration {
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

func TestEncodeLayout(t *testing.T) {
	frame := Encode(testConfig())

	// Big-endian S7 layout, field by field.
	expected := []byte{
		0x40, 0xA0, 0x00, 0x00, // TFR 5.0
		0x00, 0x03, // FRR aqueous 3
		0x00, 0x01, // FRR solvent 1
		0x40, 0x00, 0x00, 0x00, // volume 2.0
		0x41, 0xB0, 0x00, 0x00, // temperature 22.0
		0x00, 0x01, // chip HERRINGBONE
		0x00, 0x00, // manifold SMALL
		0x00, 0x01, // mode RUN
		0x00, // validation bit clear
	}
	if !bytes.Equal(frame.Bytes(), expected) {
		t.Fatalf("frame layout mismatch:\n got %x\nwant %x", frame.Bytes(), expected)
	}
	if frame.CommitFlag() {
		t.Fatal("freshly encoded frame must not carry the commit flag")
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []domain.RunConfiguration{
		testConfig(),
		{
			TotalFlowRate: 0.8,
			FRRAqueous:    10,
			FRRSolvent:    1,
			TargetVolume:  50.0,
			Temperature:   60.0,
			Chip:          domain.ChipBaffle,
			Manifold:      domain.ManifoldLarge,
			Mode:          domain.ModePressureTest,
		},
		{
			TotalFlowRate: 15.0,
			FRRAqueous:    1,
			FRRSolvent:    1,
			TargetVolume:  0.5,
			Temperature:   5.0,
			Chip:          domain.ChipHerringbone,
			Manifold:      domain.ManifoldSmall,
			Mode:          domain.ModeClean,
		},
	}

	for _, cfg := range cases {
		decoded, commit, err := Decode(Encode(cfg))
		if err != nil {
			t.Fatalf("decode(%+v): %v", cfg, err)
		}
		if commit {
			t.Fatalf("decode(%+v): commit flag set before any transaction", cfg)
		}
		if decoded != cfg {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, cfg)
		}
	}
}

func TestRoundTripFractionalValues(t *testing.T) {
	// Values with no exact binary representation. The config fields are
	// single precision like the controller's REAL registers, so these must
	// survive the frame unchanged.
	cfg := domain.RunConfiguration{
		TotalFlowRate: 0.8,
		FRRAqueous:    3,
		FRRSolvent:    1,
		TargetVolume:  2.6,
		Temperature:   37.7,
		Chip:          domain.ChipBaffle,
		Manifold:      domain.ManifoldLarge,
		Mode:          domain.ModeRun,
	}

	decoded, _, err := Decode(Encode(cfg))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, cfg)
	}
}

func TestCommitFlag(t *testing.T) {
	frame := Encode(testConfig())

	set := frame.WithCommitFlag(true)
	if !set.CommitFlag() {
		t.Fatal("WithCommitFlag(true) did not set the validation bit")
	}
	if _, commit, err := Decode(set); err != nil || !commit {
		t.Fatalf("decode of committed frame: commit=%v err=%v", commit, err)
	}

	cleared := set.WithCommitFlag(false)
	if cleared.CommitFlag() {
		t.Fatal("WithCommitFlag(false) did not clear the validation bit")
	}
	if cleared != frame {
		t.Fatal("setting and clearing the commit flag must not touch other fields")
	}
}

func TestDecodeRejectsUnknownEnums(t *testing.T) {
	for _, corrupt := range []struct {
		name   string
		offset int
	}{
		{"chip", OffChip},
		{"manifold", OffManifold},
		{"mode", OffMode},
	} {
		frame := Encode(testConfig())
		frame[corrupt.offset] = 0x7F
		frame[corrupt.offset+1] = 0x7F
		if _, _, err := Decode(frame); !errors.Is(err, domain.ErrInvalidFrame) {
			t.Fatalf("%s: expected ErrInvalidFrame, got %v", corrupt.name, err)
		}
	}
}

func TestFrameFromBytes(t *testing.T) {
	frame := Encode(testConfig())

	got, err := FrameFromBytes(frame.Bytes())
	if err != nil {
		t.Fatalf("FrameFromBytes: %v", err)
	}
	if got != frame {
		t.Fatal("FrameFromBytes did not preserve the frame")
	}

	if _, err := FrameFromBytes(frame.Bytes()[:10]); !errors.Is(err, domain.ErrInvalidFrame) {
		t.Fatalf("short block: expected ErrInvalidFrame, got %v", err)
	}
}

func TestFieldsCoverFrame(t *testing.T) {
	covered := make([]bool, FrameSize)
	for _, f := range Fields() {
		for i := f.Offset; i < f.Offset+f.Size; i++ {
			if covered[i] {
				t.Fatalf("byte %d covered twice", i)
			}
			covered[i] = true
		}
	}
	// Bytes 22 is the validation byte; 0..21 are config fields.
	for i, ok := range covered {
		if !ok && i < ConfigLen {
			t.Fatalf("config byte %d not covered by any field", i)
		}
	}
}
