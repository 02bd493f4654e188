package govconv_test

import (
	"testing"

	"github.com/GreatValueCreamSoda/govconv"
)

func Test_Config_ResolveOutput_PresetExpandsTriple(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	cfg.All = "bt709"

	frame := govconv.ColorMetadata{
		Matrix: govconv.MatrixBT601, Primaries: govconv.PrimariesSMPTE170M,
		Transfer: govconv.TransferBT601, Range: govconv.RangeTV,
	}
	got := cfg.ResolveOutput(frame)
	want := govconv.ColorMetadata{
		Matrix: govconv.MatrixBT709, Primaries: govconv.PrimariesBT709,
		Transfer: govconv.TransferBT709, Range: govconv.RangeTV,
	}
	if got != want {
		t.Fatalf("ResolveOutput with all=bt709 = %+v, want %+v", got, want)
	}
}

func Test_Config_ResolveOutput_ExplicitOverrideBeatsPreset(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	cfg.All = "bt709"
	cfg.TRC = govconv.TransferSRGB

	frame := govconv.ColorMetadata{Range: govconv.RangeTV}
	got := cfg.ResolveOutput(frame)
	if got.Transfer != govconv.TransferSRGB {
		t.Fatalf("explicit TRC override = %v, want TransferSRGB", got.Transfer)
	}
	if got.Matrix != govconv.MatrixBT709 {
		t.Fatalf("preset matrix should still apply: got %v, want MatrixBT709", got.Matrix)
	}
}

func Test_Config_ResolveOutput_UnspecifiedRangeDegradesToTV(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	frame := govconv.ColorMetadata{Range: govconv.RangeUnspecified}
	if got := cfg.ResolveOutput(frame).Range; got != govconv.RangeTV {
		t.Fatalf("unspecified range resolved to %v, want RangeTV", got)
	}
}

func Test_Config_ResolveInput_UsesISideOverrides(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	cfg.ISpace = govconv.MatrixBT2020
	cfg.IRange = govconv.RangePC

	frame := govconv.ColorMetadata{Matrix: govconv.MatrixBT709, Range: govconv.RangeTV}
	got := cfg.ResolveInput(frame)
	if got.Matrix != govconv.MatrixBT2020 {
		t.Fatalf("ISpace override = %v, want MatrixBT2020", got.Matrix)
	}
	if got.Range != govconv.RangePC {
		t.Fatalf("IRange override = %v, want RangePC", got.Range)
	}
}

func Test_Presets_KnownKeysResolve(t *testing.T) {
	for _, name := range []string{"bt709", "bt601-6-525", "bt601-6-625", "bt2020", "smpte170m", "smpte240m", "bt470m", "bt470bg"} {
		if _, ok := govconv.Presets[name]; !ok {
			t.Fatalf("expected preset %q to be registered", name)
		}
	}
}
