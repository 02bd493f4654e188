package govconv

import "math"

// preset is the canonical (matrix, primaries, transfer) triple a named
// colorspace standard expands to. Range is never part of a preset: range is
// always either inherited from the frame or set by an explicit Range/IRange
// override, exactly as ffmpeg's colorspace filter treats its own `all`
// option.
type preset struct {
	Matrix    MatrixTag
	Primaries PrimariesTag
	Transfer  TransferTag
}

// Presets maps the named colorspace standards of spec section 6 to their
// canonical (matrix, primaries, transfer) triple. Keys match the ffmpeg
// colorspace filter's `all`/`iall` option values.
var Presets = map[string]preset{
	"bt470m":      {MatrixFCC, PrimariesBT470M, TransferGamma22},
	"bt470bg":     {MatrixBT470BG, PrimariesBT470BG, TransferGamma28},
	"bt601-6-525": {MatrixSMPTE170M, PrimariesSMPTE170M, TransferSMPTE170M},
	"bt601-6-625": {MatrixBT470BG, PrimariesBT470BG, TransferBT601},
	"bt709":       {MatrixBT709, PrimariesBT709, TransferBT709},
	"smpte170m":   {MatrixSMPTE170M, PrimariesSMPTE170M, TransferSMPTE170M},
	"smpte240m":   {MatrixSMPTE240M, PrimariesSMPTE240M, TransferSMPTE240M},
	"bt2020":      {MatrixBT2020NCL, PrimariesBT2020, TransferBT709},
}

// chromaticity is an (x, y) point on the CIE 1931 chromaticity diagram.
type chromaticity struct{ X, Y float64 }

// namedPrimaries is the table of chromaticities and white points the
// PrimariesSolver looks up by PrimariesTag. This is the "named-primary
// chromaticities" metadata table spec.md marks as an external collaborator;
// govconv keeps a small internal copy since no pack repo ships a standalone
// colorimetry-constants package to depend on instead.
var namedPrimaries = map[PrimariesTag]PrimariesDesc{
	PrimariesBT709: {
		R: chromaticity{0.640, 0.330}, G: chromaticity{0.300, 0.600},
		B: chromaticity{0.150, 0.060}, W: chromaticity{0.3127, 0.3290},
	},
	PrimariesBT470M: {
		R: chromaticity{0.670, 0.330}, G: chromaticity{0.210, 0.710},
		B: chromaticity{0.140, 0.080}, W: chromaticity{0.310, 0.316},
	},
	PrimariesBT470BG: {
		R: chromaticity{0.640, 0.330}, G: chromaticity{0.290, 0.600},
		B: chromaticity{0.150, 0.060}, W: chromaticity{0.3127, 0.3290},
	},
	PrimariesSMPTE170M: {
		R: chromaticity{0.630, 0.340}, G: chromaticity{0.310, 0.595},
		B: chromaticity{0.155, 0.070}, W: chromaticity{0.3127, 0.3290},
	},
	PrimariesSMPTE240M: {
		R: chromaticity{0.630, 0.340}, G: chromaticity{0.310, 0.595},
		B: chromaticity{0.155, 0.070}, W: chromaticity{0.3127, 0.3290},
	},
	PrimariesBT2020: {
		R: chromaticity{0.708, 0.292}, G: chromaticity{0.170, 0.797},
		B: chromaticity{0.131, 0.046}, W: chromaticity{0.3127, 0.3290},
	},
}

// LookupPrimaries returns the chromaticities for a named PrimariesTag and
// reports whether the tag was recognised.
func LookupPrimaries(tag PrimariesTag) (PrimariesDesc, bool) {
	d, ok := namedPrimaries[tag]
	return d, ok
}

// namedLuma is the table of Kr/Kb luma coefficients the MatrixSolver looks
// up by MatrixTag. Like namedPrimaries, this is a small internal copy of
// the "named-matrix luma coefficients" external-collaborator table.
var namedLuma = map[MatrixTag]LumaCoefficients{
	MatrixBT709:     {Kr: 0.2126, Kb: 0.0722},
	MatrixFCC:       {Kr: 0.30, Kb: 0.11},
	MatrixBT470BG:   {Kr: 0.299, Kb: 0.114},
	MatrixSMPTE170M: {Kr: 0.299, Kb: 0.114},
	MatrixSMPTE240M: {Kr: 0.212, Kb: 0.087},
	MatrixBT2020NCL: {Kr: 0.2627, Kb: 0.0593},
	// MatrixBT2020CL is deliberately absent: constant-luminance BT.2020
	// inverts in a different order (linear<->YUV rather than linear<->RGB)
	// and is not implemented.
}

// LookupLuma returns the Kr/Kb coefficients for a named MatrixTag and
// reports whether the tag was recognised.
func LookupLuma(tag MatrixTag) (LumaCoefficients, bool) {
	l, ok := namedLuma[tag]
	return l, ok
}

// namedTransfer is the table of analytic (alpha, beta, gamma, delta)
// coefficients for transfers expressible in the closed "toe + power" form
// of spec.md section 4.1. Transfers outside this family (PQ, HLG, log) are
// non-analytic and require a caller-supplied scalar delinearise function;
// see TransferCoefficients.Analytic.
var namedTransfer = map[TransferTag]TransferCoefficients{
	TransferBT709: {
		Alpha: 1.099296826809442, Beta: 0.018053968510807,
		Gamma: 0.45, Delta: 4.5,
	},
	TransferSMPTE170M: {
		Alpha: 1.099296826809442, Beta: 0.018053968510807,
		Gamma: 0.45, Delta: 4.5,
	},
	TransferSMPTE240M: {
		Alpha: 1.1115, Beta: 0.0228,
		Gamma: 0.45, Delta: 4.0,
	},
	TransferGamma22: {
		Alpha: 1, Beta: 0, Gamma: 1.0 / 2.2, Delta: 0,
	},
	TransferGamma28: {
		Alpha: 1, Beta: 0, Gamma: 1.0 / 2.8, Delta: 0,
	},
	TransferIEC61966_2_1: {
		Alpha: 1.055, Beta: 0.0031308, Gamma: 1.0 / 2.4, Delta: 12.92,
	},
	// TransferLinear is modeled as the toe branch covering the entire
	// domain (Beta effectively infinite): Delinearise/Linearise both
	// reduce to the identity, and Alpha=1 keeps Analytic() true.
	TransferLinear: {
		Alpha: 1, Beta: math.MaxFloat64, Gamma: 1, Delta: 1,
	},
}

// LookupTransfer returns the analytic transfer coefficients for a named
// TransferTag and reports whether the tag was both recognised and
// analytic. Non-analytic transfers (PQ, HLG) are recognised by the metadata
// layer but return ok=false here: callers must supply a DelinFunc for them.
func LookupTransfer(tag TransferTag) (TransferCoefficients, bool) {
	t, ok := namedTransfer[tag]
	return t, ok && t.Analytic()
}
