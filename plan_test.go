package govconv_test

import (
	"errors"
	"testing"

	"github.com/GreatValueCreamSoda/govconv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeFormat is a minimal govconv.PixelFormatDescriptor for planner tests,
// in the style of the fake colorspace/handler structs ssimu2_test.go builds
// by hand rather than pulling in a real format registry.
type fakeFormat struct {
	depth             int
	log2W, log2H      int
	family            govconv.ColorFamily
	float, hasAlpha   bool
}

func (f fakeFormat) Depth() int                  { return f.depth }
func (f fakeFormat) Log2ChromaW() int            { return f.log2W }
func (f fakeFormat) Log2ChromaH() int            { return f.log2H }
func (f fakeFormat) Family() govconv.ColorFamily { return f.family }
func (f fakeFormat) Float() bool                 { return f.float }
func (f fakeFormat) HasAlpha() bool              { return f.hasAlpha }

var yuv420p8 = fakeFormat{depth: 8, log2W: 1, log2H: 1, family: govconv.FamilyYUV}
var yuv444p8 = fakeFormat{depth: 8, family: govconv.FamilyYUV}
var gbrpf32 = fakeFormat{depth: 32, family: govconv.FamilyRGB, float: true}

func bt709Meta() govconv.ColorMetadata {
	return govconv.ColorMetadata{
		Matrix: govconv.MatrixBT709, Primaries: govconv.PrimariesBT709,
		Transfer: govconv.TransferBT709, Range: govconv.RangeTV,
	}
}

func bt601Meta() govconv.ColorMetadata {
	return govconv.ColorMetadata{
		Matrix: govconv.MatrixBT601, Primaries: govconv.PrimariesSMPTE170M,
		Transfer: govconv.TransferBT601, Range: govconv.RangeTV,
	}
}

func newConverter() *govconv.Converter {
	var cfg govconv.Config
	cfg.SetDefaults()
	return govconv.NewConverter(cfg, govconv.NewNopLogger())
}

func Test_Converter_Build_OddDimensionsRejected(t *testing.T) {
	c := newConverter()
	_, err := c.Build(yuv420p8, yuv420p8, bt709Meta(), bt709Meta(), 97, 96)
	if !errors.Is(err, govconv.ErrOddDimensions) {
		t.Fatalf("Build with odd width: err = %v, want ErrOddDimensions", err)
	}
}

// Test_Converter_Build_FamilyMismatchRejected covers a family crossing
// Build never accepts: integer RGB against YUV. The only family crossing
// the pipeline implements a kernel for -- integer YUV against float RGB --
// is exercised by Test_Converter_Build_YUVToRGBFloatCrossingAccepted below.
func Test_Converter_Build_FamilyMismatchRejected(t *testing.T) {
	c := newConverter()
	gbrp8 := fakeFormat{depth: 8, family: govconv.FamilyRGB}
	_, err := c.Build(yuv420p8, gbrp8, bt709Meta(), bt709Meta(), 64, 64)
	if !errors.Is(err, govconv.ErrFamilyMismatch) {
		t.Fatalf("Build across non-float families: err = %v, want ErrFamilyMismatch", err)
	}
}

// Test_Converter_Build_YUVToRGBFloatCrossingAccepted covers spec.md section
// 8's round-trip scenario 1: YUV(integer) -> RGB(float) must build a plan
// rather than being rejected as a family mismatch, and must never select
// yuv2yuv_fastmode/yuv2yuv_passthrough, since only one side is YUV.
func Test_Converter_Build_YUVToRGBFloatCrossingAccepted(t *testing.T) {
	c := newConverter()
	plan, err := c.Build(yuv420p8, gbrpf32, bt709Meta(), bt709Meta(), 64, 64)
	if err != nil {
		t.Fatalf("Build YUV->RGBfloat: %v", err)
	}
	if plan.YUV2YUVFastmode {
		t.Fatal("a YUV->RGB(float) crossing must not select yuv2yuv_fastmode")
	}
	if plan.YUV2YUVPassthrough {
		t.Fatal("a YUV->RGB(float) crossing must not select yuv2yuv_passthrough")
	}
}

// Test_Converter_Build_IdentityIsPassthrough exercises the whole-pipeline
// identity case of spec.md section 8: same format, same metadata both
// sides must select yuv2yuv_passthrough.
func Test_Converter_Build_IdentityIsPassthrough(t *testing.T) {
	c := newConverter()
	plan, err := c.Build(yuv420p8, yuv420p8, bt709Meta(), bt709Meta(), 64, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.YUV2YUVPassthrough {
		t.Fatal("identical in/out format and metadata should select yuv2yuv_passthrough")
	}
	if !plan.YUV2YUVFastmode {
		t.Fatal("yuv2yuv_passthrough implies yuv2yuv_fastmode")
	}
	if !plan.RGB2RGBPassthrough {
		t.Fatal("identical primaries and transfer should select rgb2rgb_passthrough")
	}
}

// Test_Converter_Build_MatrixOnlyChangeKeepsFastmode covers a luma-
// coefficient-only change (same primaries and transfer both sides, so no
// primary mapping is needed): the composed yuv2yuv_fastmode path still
// applies, but the result is no longer byte-identical, so passthrough must
// not be selected.
func Test_Converter_Build_MatrixOnlyChangeKeepsFastmode(t *testing.T) {
	c := newConverter()
	in := bt709Meta()
	out := bt709Meta()
	out.Matrix = govconv.MatrixBT2020

	plan, err := c.Build(yuv420p8, yuv420p8, in, out, 64, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.YUV2YUVPassthrough {
		t.Fatal("matrix-only change must not select yuv2yuv_passthrough")
	}
	if !plan.YUV2YUVFastmode {
		t.Fatal("same primaries/transfer/depth/chroma should still select yuv2yuv_fastmode")
	}
}

// Test_Converter_Build_PrimariesChangeDisablesFastmode covers a bt601->bt709
// primaries change: full primary mapping through linear light is required,
// so neither fastmode nor passthrough may be selected.
func Test_Converter_Build_PrimariesChangeDisablesFastmode(t *testing.T) {
	c := newConverter()
	plan, err := c.Build(yuv420p8, yuv420p8, bt601Meta(), bt709Meta(), 64, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.RGB2RGBPassthrough {
		t.Fatal("a primaries change must not select rgb2rgb_passthrough")
	}
	if plan.YUV2YUVFastmode {
		t.Fatal("a primaries change must not select yuv2yuv_fastmode")
	}
	if plan.YUV2YUVPassthrough {
		t.Fatal("a primaries change must not select yuv2yuv_passthrough")
	}
}

// Test_Converter_Build_RangeOnlyChange covers a TV->PC range-only change at
// fixed depth: the matrix coefficients differ from identity but fastmode
// still applies.
func Test_Converter_Build_RangeOnlyChange(t *testing.T) {
	c := newConverter()
	in := bt709Meta()
	out := bt709Meta()
	out.Range = govconv.RangePC

	yuv444p12 := fakeFormat{depth: 12, family: govconv.FamilyYUV}
	plan, err := c.Build(yuv444p12, yuv444p12, in, out, 64, 64)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.YUV2YUVPassthrough {
		t.Fatal("range change must not select yuv2yuv_passthrough")
	}
	if !plan.YUV2YUVFastmode {
		t.Fatal("range-only change at fixed depth/chroma should still select yuv2yuv_fastmode")
	}
}

// Test_Converter_Build_ReusesUnchangedLUT verifies the per-resource
// rebuild-skip rule: calling Build twice with the same transfer tags on
// both sides must reuse the same IntLUT pointer rather than rebuilding it.
func Test_Converter_Build_ReusesUnchangedLUT(t *testing.T) {
	c := newConverter()
	yuv444p8 := fakeFormat{depth: 8, family: govconv.FamilyYUV}
	yuv420p10 := fakeFormat{depth: 10, log2W: 1, log2H: 1, family: govconv.FamilyYUV}

	p1, err := c.Build(yuv420p10, yuv444p8, bt709Meta(), bt601Meta(), 64, 64)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if p1.IntLUT == nil {
		t.Fatal("expected a built IntLUT for a primaries-changing, non-passthrough conversion")
	}

	// A second Build with a different matrix tag (primaries/transfer held
	// fixed) must reuse the cached LUT pointer: redoLUT depends only on
	// transfer tags and float-ness, not on matrix.
	in2 := bt709Meta()
	in2.Matrix = govconv.MatrixBT2020
	p2, err := c.Build(yuv420p10, yuv444p8, in2, bt601Meta(), 64, 64)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if p2.IntLUT != p1.IntLUT {
		t.Fatal("IntLUT should be reused when transfer tags are unchanged")
	}

	// A third Build changing the input transfer must rebuild the LUT.
	in3 := in2
	in3.Transfer = govconv.TransferGamma22
	p3, err := c.Build(yuv420p10, yuv444p8, in3, bt601Meta(), 64, 64)
	if err != nil {
		t.Fatalf("third Build: %v", err)
	}
	if p3.IntLUT == p2.IntLUT {
		t.Fatal("IntLUT should be rebuilt when input transfer tag changes")
	}
}

func Test_Converter_Build_UnsupportedFormatsRejected(t *testing.T) {
	c := newConverter()

	yuv16 := fakeFormat{depth: 16, family: govconv.FamilyYUV}
	if _, err := c.Build(yuv16, yuv16, bt709Meta(), bt709Meta(), 64, 64); !errors.Is(err, govconv.ErrInvalidDepth) {
		t.Fatalf("16-bit integer YUV: err = %v, want ErrInvalidDepth", err)
	}

	gbrp8 := fakeFormat{depth: 8, family: govconv.FamilyRGB}
	if _, err := c.Build(gbrp8, gbrp8, bt709Meta(), bt709Meta(), 64, 64); !errors.Is(err, govconv.ErrInvalidFormat) {
		t.Fatalf("integer GBR: err = %v, want ErrInvalidFormat", err)
	}

	yuv411 := fakeFormat{depth: 8, log2W: 2, family: govconv.FamilyYUV}
	if _, err := c.Build(yuv411, yuv411, bt709Meta(), bt709Meta(), 64, 64); !errors.Is(err, govconv.ErrInvalidSubsampling) {
		t.Fatalf("4:1:1 subsampling: err = %v, want ErrInvalidSubsampling", err)
	}
}

func Test_Converter_Build_InvalidRangeRejected(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	cfg.IRange = govconv.Range(9)
	c := govconv.NewConverter(cfg, govconv.NewNopLogger())

	_, err := c.Build(yuv420p8, yuv420p8, bt709Meta(), bt709Meta(), 64, 64)
	if !errors.Is(err, govconv.ErrInvalidRange) {
		t.Fatalf("out-of-domain range override: err = %v, want ErrInvalidRange", err)
	}
}

func Test_Converter_Build_UnknownTransferRejected(t *testing.T) {
	c := newConverter()
	meta := bt709Meta()
	meta.Transfer = govconv.TransferPQ
	_, err := c.Build(yuv420p8, yuv420p8, meta, bt709Meta(), 64, 64)
	if !errors.Is(err, govconv.ErrUnknownTransfer) {
		t.Fatalf("Build with PQ input transfer: err = %v, want ErrUnknownTransfer", err)
	}
}

// Test_Converter_Build_OutDelinUnlocksNonAnalyticOutput covers the escape
// hatch for non-analytic output transfers: a caller-supplied scalar
// delinearise function stands in for the missing closed form on the output
// side, while the input side must still be analytic.
func Test_Converter_Build_OutDelinUnlocksNonAnalyticOutput(t *testing.T) {
	var cfg govconv.Config
	cfg.SetDefaults()
	cfg.OutDelin = func(v float64) float64 { return v }
	c := govconv.NewConverter(cfg, govconv.NewNopLogger())

	outMeta := bt709Meta()
	outMeta.Transfer = govconv.TransferPQ
	if _, err := c.Build(yuv420p8, yuv420p8, bt709Meta(), outMeta, 64, 64); err != nil {
		t.Fatalf("Build with OutDelin for PQ output: %v", err)
	}

	inMeta := bt709Meta()
	inMeta.Transfer = govconv.TransferPQ
	if _, err := c.Build(yuv420p8, yuv420p8, inMeta, bt709Meta(), 64, 64); !errors.Is(err, govconv.ErrUnknownTransfer) {
		t.Fatalf("PQ input must stay rejected even with OutDelin set: err = %v", err)
	}
}

func Test_Converter_Build_UnspecifiedRangeWarnsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var cfg govconv.Config
	cfg.SetDefaults()
	c := govconv.NewConverter(cfg, govconv.NewLogger(zap.New(core)))
	meta := bt709Meta()
	meta.Range = govconv.RangeUnspecified

	for i := 0; i < 3; i++ {
		plan, err := c.Build(yuv420p8, yuv420p8, meta, meta, 64, 64)
		if err != nil {
			t.Fatalf("Build iteration %d: %v", i, err)
		}
		if plan.InMeta.Range != govconv.RangeTV {
			t.Fatalf("Build iteration %d: resolved range = %v, want RangeTV", i, plan.InMeta.Range)
		}
	}
	// Both sides are unspecified on every Build, yet the Converter logs the
	// warning only once.
	if n := logs.Len(); n != 1 {
		t.Fatalf("logged %d range warnings, want 1", n)
	}
}
