// Package govconv converts video frames between YUV/RGB colorspaces,
// primaries, transfer characteristics, and numeric ranges.
//
// Given metadata describing an input frame's matrix coefficients,
// primaries, transfer curve, and range, and the same metadata for a
// desired output, govconv derives the coefficient tables and lookup
// tables needed to carry pixels through linear light and writes the
// converted frame. The core pipeline is pure CPU arithmetic: fixed-point
// for integer pixel formats, IEEE float for float formats.
package govconv

// MatrixTag identifies a named set of YUV<->RGB luma coefficients. Values
// mirror the libavutil AVColorSpace convention so callers can pass values
// straight through from a demuxed frame's color_space field.
type MatrixTag int

const (
	// MatrixAuto is the "no override" sentinel (the zero value of MatrixTag
	// is MatrixRGB, which is why Config.SetDefaults sets MatrixAuto):
	// Config.Space/ISpace left at MatrixAuto defers to the named preset or
	// the frame's own tag.
	MatrixAuto        MatrixTag = -1
	MatrixRGB         MatrixTag = 0
	MatrixBT709       MatrixTag = 1
	MatrixUnspecified MatrixTag = 2
	MatrixFCC         MatrixTag = 4
	MatrixBT470BG     MatrixTag = 5
	MatrixSMPTE170M   MatrixTag = 6
	MatrixSMPTE240M   MatrixTag = 7
	MatrixBT2020NCL   MatrixTag = 9
	MatrixBT2020CL    MatrixTag = 10
	MatrixBT2100ICtCp MatrixTag = 14

	// Aliases for readability.
	MatrixBT601  = MatrixSMPTE170M
	MatrixBT2020 = MatrixBT2020NCL
)

// PrimariesTag identifies a named set of chromaticities and a white point.
type PrimariesTag int

const (
	PrimariesUnspecified PrimariesTag = 2
	PrimariesBT709       PrimariesTag = 1
	PrimariesBT470M      PrimariesTag = 4
	PrimariesBT470BG     PrimariesTag = 5
	PrimariesSMPTE170M   PrimariesTag = 6
	PrimariesSMPTE240M   PrimariesTag = 7
	PrimariesBT2020      PrimariesTag = 9
)

// TransferTag identifies a named opto-electronic transfer curve.
type TransferTag int

const (
	TransferUnspecified  TransferTag = 2
	TransferBT709        TransferTag = 1
	TransferGamma22      TransferTag = 4
	TransferGamma28      TransferTag = 5
	TransferSMPTE170M    TransferTag = 6
	TransferSMPTE240M    TransferTag = 7
	TransferLinear       TransferTag = 8
	TransferIEC61966_2_1 TransferTag = 13 // sRGB
	TransferSMPTE2084    TransferTag = 16 // PQ
	TransferARIBSTDB67   TransferTag = 18 // HLG

	// Aliases.
	TransferBT601 = TransferSMPTE170M
	TransferSRGB  = TransferIEC61966_2_1
	TransferPQ    = TransferSMPTE2084
	TransferHLG   = TransferARIBSTDB67
)

// Range indicates whether pixel values occupy the limited ("TV") or full
// ("PC") part of their container. RangeUnspecified resolves to RangeTV
// with a one-shot warning (see Converter.warnUnspecifiedRange).
type Range int

const (
	RangeUnspecified Range = 0
	RangeTV          Range = 1
	RangePC          Range = 2
)

// ColorFamily distinguishes RGB-family formats from YUV-family formats.
// Build rejects a conversion that crosses families, except integer YUV
// against float RGB.
type ColorFamily int

const (
	FamilyYUV ColorFamily = iota
	FamilyRGB
)

// ColorMetadata is the (matrix, primaries, transfer, range) tuple describing
// one side, input or output, of a conversion.
type ColorMetadata struct {
	Matrix    MatrixTag
	Primaries PrimariesTag
	Transfer  TransferTag
	Range     Range
}

// ConeMatrix selects the cone-response basis used for chromatic adaptation.
type ConeMatrix int

const (
	ConeBradford ConeMatrix = iota
	ConeVonKries
	ConeIdentity
)

// DitherMode selects the error-diffusion strategy applied on the RGB->YUV
// quantisation step.
type DitherMode int

const (
	DitherNone DitherMode = iota
	DitherFSB             // Floyd-Steinberg-style banding dither
)

// PixelFormatDescriptor is the minimal view the core needs of a pixel
// format. govconv never implements a format registry itself; callers
// adapt their own descriptor into this interface. cmd/govconv does so for
// github.com/GreatValueCreamSoda/gopixfmts, the sibling pixel-format
// registry package.
type PixelFormatDescriptor interface {
	// Depth returns the bit depth of one sample: 8, 10, 12, 16, or 32.
	Depth() int
	// Log2ChromaW returns log2 of horizontal chroma subsampling (0 or 1).
	Log2ChromaW() int
	// Log2ChromaH returns log2 of vertical chroma subsampling (0 or 1).
	Log2ChromaH() int
	// Family reports whether the format is RGB or YUV.
	Family() ColorFamily
	// Float reports whether samples are IEEE floating point.
	Float() bool
	// HasAlpha reports whether the format carries an alpha plane.
	HasAlpha() bool
}

// Config is the host-facing configuration surface, mirroring the options an
// ffmpeg-style colorspace filter exposes: named presets, per-side
// overrides, a forced fast path, dithering, and the chromatic-adaptation
// basis.
type Config struct {
	// All/IAll name an entry in Presets and expand to a canonical
	// (matrix, primaries, transfer) triple for the output/input side.
	// Explicit Space/Primaries/TRC overrides below take precedence.
	All, IAll string

	Space, ISpace         MatrixTag
	Range, IRange         Range
	Primaries, IPrimaries PrimariesTag
	TRC, ITRC             TransferTag

	// Fast forces rgb2rgb_passthrough, skipping primary mapping and tone
	// curve application entirely.
	Fast bool

	// OutDelin supplies the scalar delinearise function for a non-analytic
	// output transfer (PQ, HLG, log). It is consulted only when the resolved
	// output transfer has no analytic coefficient set; the input side must
	// always be analytic.
	OutDelin DelinFunc

	Dither  DitherMode
	WPAdapt ConeMatrix
}

// SetDefaults resets c to a no-op configuration: no preset expansion, no
// per-side overrides, Bradford chromatic adaptation, no dither. Callers
// should start from SetDefaults rather than a bare Config{}, since the zero
// value of MatrixTag (MatrixRGB) is a valid explicit override and would
// otherwise be indistinguishable from "unset".
func (c *Config) SetDefaults() {
	*c = Config{
		Space:   MatrixAuto,
		ISpace:  MatrixAuto,
		WPAdapt: ConeBradford,
	}
}

// resolveSide expands a named preset over frame metadata, then applies
// explicit overrides in override > preset > frame precedence for
// range/primaries/transfer. It takes no matrix override: the zero value
// MatrixRGB is indistinguishable from an explicit RGB override, so callers
// apply Space/ISpace afterwards against MatrixAuto, where it also beats the
// preset (see ResolveInput/ResolveOutput).
func resolveSide(preset string, rangeOverride Range,
	primariesOverride PrimariesTag, trcOverride TransferTag,
	frame ColorMetadata) ColorMetadata {

	out := frame

	if p, ok := Presets[preset]; ok {
		out.Matrix, out.Primaries, out.Transfer = p.Matrix, p.Primaries, p.Transfer
	}
	if primariesOverride != 0 {
		out.Primaries = primariesOverride
	}
	if trcOverride != 0 {
		out.Transfer = trcOverride
	}
	if rangeOverride != RangeUnspecified {
		out.Range = rangeOverride
	}
	if out.Range == RangeUnspecified {
		out.Range = RangeTV
	}

	return out
}

// ResolveInput computes the effective input ColorMetadata from the frame's
// own tags plus Config overrides (IAll, ISpace, IRange, IPrimaries, ITRC).
func (c *Config) ResolveInput(frame ColorMetadata) ColorMetadata {
	out := resolveSide(c.IAll, c.IRange, c.IPrimaries, c.ITRC, frame)
	if c.ISpace != MatrixAuto {
		out.Matrix = c.ISpace
	}
	return out
}

// ResolveOutput computes the effective output ColorMetadata the same way,
// using All, Space, Range, Primaries, TRC.
func (c *Config) ResolveOutput(frame ColorMetadata) ColorMetadata {
	out := resolveSide(c.All, c.Range, c.Primaries, c.TRC, frame)
	if c.Space != MatrixAuto {
		out.Matrix = c.Space
	}
	return out
}
