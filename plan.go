package govconv

import "gonum.org/v1/gonum/mat"

// supportedDepths and depthIndex implement the "static 2D dispatch table"
// design note of spec.md section 9: kernels are selected by
// (depth_index, subsampling_index) rather than dynamic dispatch.
var supportedDepths = [...]int{8, 10, 12, 16, 32}

func depthIndex(depth int) (int, bool) {
	switch depth {
	case 8:
		return 0, true
	case 10:
		return 1, true
	case 12:
		return 2, true
	case 16:
		return 3, true
	case 32:
		return 4, true
	default:
		return 0, false
	}
}

// subsamplingIndex maps log2 chroma width/height to the dispatch table's
// second axis: 0 for 4:4:4, 1 for 4:2:2, 2 for 4:2:0.
func subsamplingIndex(log2W, log2H int) (int, bool) {
	switch {
	case log2W == 0 && log2H == 0:
		return 0, true
	case log2W == 1 && log2H == 0:
		return 1, true
	case log2W == 1 && log2H == 1:
		return 2, true
	default:
		return 0, false
	}
}

// Plan holds every coefficient table, LUT, and passthrough flag a
// conversion needs, immutable between frames whose metadata hasn't
// changed. See Build for the rebuild-on-change rule.
type Plan struct {
	InFmt, OutFmt   PixelFormatDescriptor
	InMeta, OutMeta ColorMetadata

	InPrimaries, OutPrimaries PrimariesDesc
	InLuma, OutLuma           LumaCoefficients
	InTransfer, OutTransfer   Transfer

	YUV2RGBCoeffs LaneCoeffs
	RGB2YUVCoeffs LaneCoeffs
	YUVOffsetIn   [8]int32
	YUVOffsetOut  [8]int32

	LRGB2LRGBCoeffs  LaneCoeffs    // 14-bit fractional integer primary map
	LRGB2LRGBCoeffsF [3][3]float64 // float mirror for the float paths

	IntLUT  *GammaLUT
	HalfLUT *HalfGammaLUT

	YUV2YUVCoeffs                     LaneCoeffs
	YUV2YUVOffsetIn, YUV2YUVOffsetOut [8]int32

	RGB2RGBPassthrough   bool
	LRGB2LRGBPassthrough bool
	YUV2YUVFastmode      bool
	YUV2YUVPassthrough   bool

	Dither DitherMode

	// Dispatch-table axes (spec.md section 9): depth index of the in/out
	// side and subsampling index of the in/out side. The two subsampling
	// indices differ when a conversion resamples chroma (e.g. 4:2:0 in,
	// 4:4:4 out); kernels upsample with the input index and downsample with
	// the output index.
	InDepthIdx, OutDepthIdx             int
	InSubsamplingIdx, OutSubsamplingIdx int
}

// planInputs captures the subset of state that, if unchanged from the
// previous frame, lets Build skip rederiving a given resource group. This
// implements the "metadata-change-driven replanning" design note: per-
// resource validity instead of one dirty bit.
type planInputs struct {
	inPrimaries, outPrimaries PrimariesTag
	inTransfer, outTransfer   TransferTag
	inMatrix, outMatrix       MatrixTag
	inRange, outRange         Range
}

// Converter owns a Plan and the per-resource validity state needed to
// rebuild only the parts that changed between frames. It also owns the
// one-shot "range unspecified" warning required by spec.md section 7.
type Converter struct {
	cfg    Config
	logger *Logger

	plan   *Plan
	inputs planInputs
	warned bool
}

// NewConverter creates a Converter using cfg and logger. A nil logger is
// replaced with a no-op Logger.
func NewConverter(cfg Config, logger *Logger) *Converter {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Converter{cfg: cfg, logger: logger}
}

// warnUnspecifiedRange emits the single user-visible "range unspecified;
// assuming TV" warning at most once per Converter instance.
func (c *Converter) warnUnspecifiedRange(side string) {
	if c.warned {
		return
	}
	c.warned = true
	c.logger.Warnf("range unspecified on %s; assuming TV", side)
}

// Build resolves in/out metadata against Config, validates formats and
// dimensions, and returns the Plan for this conversion. It rebuilds only
// the coefficient groups whose tag inputs changed since the last call on
// this Converter (see planInputs), reusing c.plan's other fields otherwise.
func (c *Converter) Build(inFmt, outFmt PixelFormatDescriptor,
	inFrameMeta, outFrameMeta ColorMetadata, width, height int) (*Plan, error) {

	if width%2 != 0 || height%2 != 0 {
		return nil, newPlanError(ErrOddDimensions, "%dx%d", width, height)
	}

	// A family crossing is only ever valid as one half of spec.md section 1's
	// "optionally changing pixel layout": integer YUV on one side, floating
	// point RGB on the other (the pipeline's only two supported families,
	// per section 3). Any other crossing -- including integer RGB, which
	// this package never builds a kernel for -- is still rejected.
	if inFmt.Family() != outFmt.Family() {
		yuv2rgbFloat := inFmt.Family() == FamilyYUV && !inFmt.Float() &&
			outFmt.Family() == FamilyRGB && outFmt.Float()
		rgbFloat2yuv := inFmt.Family() == FamilyRGB && inFmt.Float() &&
			outFmt.Family() == FamilyYUV && !outFmt.Float()
		if !yuv2rgbFloat && !rgbFloat2yuv {
			return nil, newPlanError(ErrFamilyMismatch, "%v vs %v",
				inFmt.Family(), outFmt.Family())
		}
	}

	if pe := validateFormat(inFmt, "input"); pe != nil {
		return nil, pe
	}
	if pe := validateFormat(outFmt, "output"); pe != nil {
		return nil, pe
	}

	inSubIdx, ok := subsamplingIndex(inFmt.Log2ChromaW(), inFmt.Log2ChromaH())
	if !ok {
		return nil, newPlanError(ErrInvalidSubsampling,
			"input %d/%d", inFmt.Log2ChromaW(), inFmt.Log2ChromaH())
	}
	outSubIdx, ok := subsamplingIndex(outFmt.Log2ChromaW(), outFmt.Log2ChromaH())
	if !ok {
		return nil, newPlanError(ErrInvalidSubsampling,
			"output %d/%d", outFmt.Log2ChromaW(), outFmt.Log2ChromaH())
	}

	inMeta := c.cfg.ResolveInput(inFrameMeta)
	outMeta := c.cfg.ResolveOutput(outFrameMeta)

	if inMeta.Range != RangeTV && inMeta.Range != RangePC {
		return nil, newPlanError(ErrInvalidRange, "input range %d", inMeta.Range)
	}
	if outMeta.Range != RangeTV && outMeta.Range != RangePC {
		return nil, newPlanError(ErrInvalidRange, "output range %d", outMeta.Range)
	}

	if inFrameMeta.Range == RangeUnspecified && c.cfg.IRange == RangeUnspecified {
		c.warnUnspecifiedRange("input")
	}
	if outFrameMeta.Range == RangeUnspecified && c.cfg.Range == RangeUnspecified {
		c.warnUnspecifiedRange("output")
	}

	inPrimDesc, ok := LookupPrimaries(inMeta.Primaries)
	if !ok {
		return nil, newPlanError(ErrUnknownPrimaries, "%d", inMeta.Primaries)
	}
	outPrimDesc, ok := LookupPrimaries(outMeta.Primaries)
	if !ok {
		return nil, newPlanError(ErrUnknownPrimaries, "%d", outMeta.Primaries)
	}

	inLuma, outLuma := LumaCoefficients{}, LumaCoefficients{}
	if inFmt.Family() == FamilyYUV {
		inLuma, ok = LookupLuma(inMeta.Matrix)
		if !ok {
			return nil, newPlanError(ErrUnknownMatrix, "%d", inMeta.Matrix)
		}
	}
	if outFmt.Family() == FamilyYUV {
		outLuma, ok = LookupLuma(outMeta.Matrix)
		if !ok {
			return nil, newPlanError(ErrUnknownMatrix, "%d", outMeta.Matrix)
		}
	}

	inCoeffs, inAnalytic := LookupTransfer(inMeta.Transfer)
	if !inAnalytic {
		return nil, newPlanError(ErrUnknownTransfer,
			"input transfer %d requires a caller-supplied DelinFunc and is "+
				"not analytic", inMeta.Transfer)
	}
	outCoeffs, outAnalytic := LookupTransfer(outMeta.Transfer)
	var outTransfer Transfer
	switch {
	case outAnalytic:
		outTransfer = Transfer{Coeffs: outCoeffs}
	case c.cfg.OutDelin != nil:
		// Non-analytic output transfer (PQ, HLG, log) with a caller-supplied
		// scalar delinearise function: only the output side is ever
		// delinearised, so no analytic inverse is needed for it.
		outTransfer = Transfer{Delin: c.cfg.OutDelin}
	default:
		return nil, newPlanError(ErrUnknownTransfer,
			"output transfer %d has no registered analytic or scalar form",
			outMeta.Transfer)
	}
	inTransfer := Transfer{Coeffs: inCoeffs}

	next := planInputs{
		inPrimaries: inMeta.Primaries, outPrimaries: outMeta.Primaries,
		inTransfer: inMeta.Transfer, outTransfer: outMeta.Transfer,
		inMatrix: inMeta.Matrix, outMatrix: outMeta.Matrix,
		inRange: inMeta.Range, outRange: outMeta.Range,
	}

	// Per-resource validity tracking (spec.md section 9): a resource group
	// is only rederived when its own tag inputs changed since the last
	// Build on this Converter, or there is no previous Plan to reuse.
	prev := c.plan
	redoPrimaries := prev == nil || next.inPrimaries != c.inputs.inPrimaries ||
		next.outPrimaries != c.inputs.outPrimaries
	redoYUV2RGB := prev == nil || next.inMatrix != c.inputs.inMatrix ||
		next.inRange != c.inputs.inRange || inFmt.Depth() != prev.InFmt.Depth()
	redoRGB2YUV := prev == nil || next.outMatrix != c.inputs.outMatrix ||
		next.outRange != c.inputs.outRange || outFmt.Depth() != prev.OutFmt.Depth()

	plan := &Plan{
		InFmt: inFmt, OutFmt: outFmt,
		InMeta: inMeta, OutMeta: outMeta,
		InPrimaries: inPrimDesc, OutPrimaries: outPrimDesc,
		InLuma: inLuma, OutLuma: outLuma,
		InTransfer: inTransfer, OutTransfer: outTransfer,
		InDepthIdx: mustDepthIndex(inFmt.Depth()), OutDepthIdx: mustDepthIndex(outFmt.Depth()),
		InSubsamplingIdx: inSubIdx, OutSubsamplingIdx: outSubIdx,
		Dither: c.cfg.Dither,
	}

	var lrgbPassthrough bool
	if redoPrimaries {
		var primaryMap *mat.Dense
		primaryMap, lrgbPassthrough = PrimaryMap(inPrimDesc, outPrimDesc, c.cfg.WPAdapt)
		plan.LRGB2LRGBPassthrough = lrgbPassthrough
		fillLaneMatrix(&plan.LRGB2LRGBCoeffs, primaryMap, 16384)
		for r := 0; r < 3; r++ {
			for cc := 0; cc < 3; cc++ {
				plan.LRGB2LRGBCoeffsF[r][cc] = primaryMap.At(r, cc)
			}
		}
	} else {
		lrgbPassthrough = prev.LRGB2LRGBPassthrough
		plan.LRGB2LRGBPassthrough = prev.LRGB2LRGBPassthrough
		plan.LRGB2LRGBCoeffs = prev.LRGB2LRGBCoeffs
		plan.LRGB2LRGBCoeffsF = prev.LRGB2LRGBCoeffsF
	}

	plan.RGB2RGBPassthrough = c.cfg.Fast ||
		(lrgbPassthrough && inMeta.Transfer == outMeta.Transfer)

	// The composed YUV->YUV matrix (and the byte-identical memcpy passthrough
	// built on top of it) only means anything when both sides actually carry
	// Y/U/V planes: for an RGB-family side, Log2ChromaW/H are trivially 0/0,
	// which would otherwise make chromaMatch vacuously true and route a
	// GBR(A) conversion through yuv2yuv_fastmode's integer Y/U/V coefficient
	// path.
	bothYUV := inFmt.Family() == FamilyYUV && outFmt.Family() == FamilyYUV

	chromaMatch := inFmt.Log2ChromaW() == outFmt.Log2ChromaW() &&
		inFmt.Log2ChromaH() == outFmt.Log2ChromaH()
	plan.YUV2YUVFastmode = bothYUV && plan.RGB2RGBPassthrough && chromaMatch

	depthMatch := inFmt.Depth() == outFmt.Depth()
	plan.YUV2YUVPassthrough = plan.YUV2YUVFastmode && inMeta == outMeta && depthMatch

	solver := &MatrixSolver{
		InLuma: inLuma, OutLuma: outLuma,
		InDepth: inFmt.Depth(), OutDepth: outFmt.Depth(),
		InRange: inMeta.Range, OutRange: outMeta.Range,
	}

	if inFmt.Family() == FamilyYUV {
		if redoYUV2RGB {
			plan.YUV2RGBCoeffs, plan.YUVOffsetIn = solver.YUV2RGB()
		} else {
			plan.YUV2RGBCoeffs, plan.YUVOffsetIn = prev.YUV2RGBCoeffs, prev.YUVOffsetIn
		}
	}
	if outFmt.Family() == FamilyYUV {
		if redoRGB2YUV {
			plan.RGB2YUVCoeffs, plan.YUVOffsetOut = solver.RGB2YUV()
		} else {
			plan.RGB2YUVCoeffs, plan.YUVOffsetOut = prev.RGB2YUVCoeffs, prev.YUVOffsetOut
		}
	}
	if plan.YUV2YUVFastmode {
		if redoYUV2RGB || redoRGB2YUV || prev == nil || !prev.YUV2YUVFastmode {
			plan.YUV2YUVCoeffs, plan.YUV2YUVOffsetIn, plan.YUV2YUVOffsetOut = solver.YUV2YUV()
		} else {
			plan.YUV2YUVCoeffs = prev.YUV2YUVCoeffs
			plan.YUV2YUVOffsetIn, plan.YUV2YUVOffsetOut = prev.YUV2YUVOffsetIn, prev.YUV2YUVOffsetOut
		}
	}
	// The kernels read the offset tables per component: slot 0 is the luma
	// black level from GetRangeOffsets, slots 1 and 2 the chroma midpoint
	// 128<<(depth-8) that U and V are centred on.
	if inFmt.Family() == FamilyYUV {
		mid := int32(128) << uint(inFmt.Depth()-8)
		plan.YUVOffsetIn[1], plan.YUVOffsetIn[2] = mid, mid
		plan.YUV2YUVOffsetIn[1], plan.YUV2YUVOffsetIn[2] = mid, mid
	}
	if outFmt.Family() == FamilyYUV {
		mid := int32(128) << uint(outFmt.Depth()-8)
		plan.YUVOffsetOut[1], plan.YUVOffsetOut[2] = mid, mid
		plan.YUV2YUVOffsetOut[1], plan.YUV2YUVOffsetOut[2] = mid, mid
	}

	redoLUT := prev == nil || next.inTransfer != c.inputs.inTransfer ||
		next.outTransfer != c.inputs.outTransfer

	// The integer LUT serves the all-integer pipeline; the half-float LUT
	// serves only the pure GBRPF16->GBRPF16 pipeline. Mixed half/single and
	// the YUV<->float crossings evaluate the closed form per pixel instead.
	needIntLUT := !inFmt.Float() && !outFmt.Float()
	needHalfLUT := inFmt.Float() && outFmt.Float() &&
		inFmt.Depth() == 16 && outFmt.Depth() == 16

	if !plan.RGB2RGBPassthrough {
		if needIntLUT {
			if !redoLUT && prev.IntLUT != nil {
				plan.IntLUT = prev.IntLUT
			} else {
				plan.IntLUT = BuildGammaLUT(inTransfer, outTransfer)
			}
		}
		if needHalfLUT {
			if !redoLUT && prev.HalfLUT != nil {
				plan.HalfLUT = prev.HalfLUT
			} else {
				plan.HalfLUT = BuildHalfGammaLUT(inTransfer, outTransfer)
			}
		}
	}

	c.logger.Debugf("plan: redo primaries=%v yuv2rgb=%v rgb2yuv=%v lut=%v fastmode=%v passthrough=%v",
		redoPrimaries, redoYUV2RGB, redoRGB2YUV, redoLUT,
		plan.YUV2YUVFastmode, plan.YUV2YUVPassthrough)

	c.plan = plan
	c.inputs = next
	return plan, nil
}

func mustDepthIndex(depth int) int {
	i, _ := depthIndex(depth)
	return i
}

// validateFormat enforces the supported-format table: planar YUV at
// 8/10/12-bit for integer formats, planar GBR(A) at 16/32-bit for float
// formats, nothing else.
func validateFormat(f PixelFormatDescriptor, side string) *PlanError {
	if f.Float() {
		if f.Family() != FamilyRGB {
			return newPlanError(ErrInvalidFormat, "%s: float formats must be planar GBR", side)
		}
		if d := f.Depth(); d != 16 && d != 32 {
			return newPlanError(ErrInvalidDepth, "%s: float depth %d", side, d)
		}
		if f.Log2ChromaW() != 0 || f.Log2ChromaH() != 0 {
			return newPlanError(ErrInvalidSubsampling, "%s: GBR formats are 4:4:4 only", side)
		}
		return nil
	}
	if f.Family() != FamilyYUV {
		return newPlanError(ErrInvalidFormat, "%s: integer formats must be planar YUV", side)
	}
	if d := f.Depth(); d != 8 && d != 10 && d != 12 {
		return newPlanError(ErrInvalidDepth, "%s: integer YUV depth %d", side, d)
	}
	return nil
}

// fillLaneMatrix quantises a double-precision 3x3 matrix to fixed point at
// the given fractional-bit multiplier and replicates each entry 8 times.
func fillLaneMatrix(coeffs *LaneCoeffs, m *mat.Dense, multiplier float64) {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := int32(roundHalfAwayFromZero(multiplier * m.At(r, c)))
			fill(coeffs, r, c, v)
		}
	}
}
