package govconv

import "gonum.org/v1/gonum/mat"

// LumaCoefficients is the (Kr, Kb) pair defining a YUV<->RGB matrix;
// Kg = 1 - Kr - Kb.
type LumaCoefficients struct {
	Kr, Kb float64
}

func (l LumaCoefficients) Kg() float64 { return 1 - l.Kr - l.Kb }

// yuv2rgbMatrix builds the classical double-precision YUV->RGB matrix for
// l: the standard 3x3 derived from Kr/Kb. It has no identity case for
// MatrixRGB; every l is treated as a Kr/Kb luma pair.
func yuv2rgbMatrix(l LumaCoefficients) *mat.Dense {
	kr, kb, kg := l.Kr, l.Kb, l.Kg()
	return mat.NewDense(3, 3, []float64{
		1, 0, 2 * (1 - kr),
		1, -2 * kb * (1 - kb) / kg, -2 * kr * (1 - kr) / kg,
		1, 2 * (1 - kb), 0,
	})
}

// RangeOffsets holds the black-level offset and luma/chroma excursion
// ranges for one side of a conversion at a given bit depth, per spec.md
// section 4.4's get_range_off.
type RangeOffsets struct {
	Offset  float64
	YRange  float64
	UVRange float64
}

// GetRangeOffsets computes RangeOffsets for depth and r:
//
//	TV: offset = 16*2^(depth-8), y_rng = 219*2^(depth-8), uv_rng = 224*2^(depth-8)
//	PC: offset = 0,              y_rng = uv_rng = 2^depth - 1
func GetRangeOffsets(depth int, r Range) RangeOffsets {
	scale := pow2(depth - 8)
	if r == RangePC {
		full := pow2(depth) - 1
		return RangeOffsets{Offset: 0, YRange: full, UVRange: full}
	}
	return RangeOffsets{
		Offset:  16 * scale,
		YRange:  219 * scale,
		UVRange: 224 * scale,
	}
}

func pow2(n int) float64 {
	if n >= 0 {
		return float64(int(1) << uint(n))
	}
	result := 1.0
	for range -n {
		result /= 2
	}
	return result
}

// LaneCoeffs is a 3x3 matrix of integer fixed-point coefficients, each
// replicated 8 times to allow SIMD lane fan-out (spec.md section 9): a
// scalar implementation writes only lane 0 and ignores the rest, while a
// vectorised kernel can broadcast straight from this layout.
type LaneCoeffs [3][3][8]int32

func fill(coeffs *LaneCoeffs, row, col int, v int32) {
	for lane := range coeffs[row][col] {
		coeffs[row][col][lane] = v
	}
}

// MatrixSolver derives the fixed-point YUV<->RGB coefficient tables and the
// composed YUV->YUV matrix for a pair of (LumaCoefficients, depth, range)
// sides, following spec.md section 4.4 exactly.
type MatrixSolver struct {
	InLuma, OutLuma   LumaCoefficients
	InDepth, OutDepth int
	InRange, OutRange Range
}

// const rgbScale embeds the canonical RGB intermediate scale: linear-light
// [0.0, 1.0] maps to integer [0, 28672].
const rgbScale = 28672

// YUV2RGB returns the fixed-point YUV->RGB coefficients and input offsets.
// Per-lane coefficient: round(28672 * 2^(depth-1) * coef[n][m] / range[m]),
// where range[0] is the luma range and range[1]/range[2] are the chroma
// range.
func (s *MatrixSolver) YUV2RGB() (LaneCoeffs, [8]int32) {
	m := yuv2rgbMatrix(s.InLuma)
	ro := GetRangeOffsets(s.InDepth, s.InRange)
	ranges := [3]float64{ro.YRange, ro.UVRange, ro.UVRange}

	var coeffs LaneCoeffs
	scale := rgbScale * pow2(s.InDepth-1)
	for n := 0; n < 3; n++ {
		for c := 0; c < 3; c++ {
			v := roundHalfAwayFromZero(scale * m.At(n, c) / ranges[c])
			fill(&coeffs, n, c, int32(v))
		}
	}

	var offset [8]int32
	for lane := range offset {
		offset[lane] = int32(ro.Offset)
	}
	return coeffs, offset
}

// RGB2YUV returns the fixed-point RGB->YUV coefficients and output offsets.
// Per-lane coefficient: round(2^(29-depth) * out_range[n] * coef[n][m] / 28672).
func (s *MatrixSolver) RGB2YUV() (LaneCoeffs, [8]int32) {
	var m mat.Dense
	if err := m.Inverse(yuv2rgbMatrix(s.OutLuma)); err != nil {
		panic("govconv: singular YUV->RGB matrix: " + err.Error())
	}
	ro := GetRangeOffsets(s.OutDepth, s.OutRange)
	ranges := [3]float64{ro.YRange, ro.UVRange, ro.UVRange}

	var coeffs LaneCoeffs
	scale := pow2(29 - s.OutDepth)
	for n := 0; n < 3; n++ {
		for c := 0; c < 3; c++ {
			v := roundHalfAwayFromZero(scale * ranges[n] * m.At(n, c) / rgbScale)
			fill(&coeffs, n, c, int32(v))
		}
	}

	var offset [8]int32
	for lane := range offset {
		offset[lane] = int32(ro.Offset)
	}
	return coeffs, offset
}

// YUV2YUV derives the composed double-precision yuv2yuv = rgb2yuv * yuv2rgb
// matrix (the input side's yuv2rgb applied first, then the output side's
// rgb2yuv) and quantises it to 14-bit fixed point:
//
//	round(16384 * yuv2yuv[m][n] * out_rng * 2^in_depth / (in_rng * 2^out_depth))
//
// This is used only when PipelinePlanner selects yuv2yuv_fastmode: no
// color-volume change, only matrix/range/depth differ.
func (s *MatrixSolver) YUV2YUV() (LaneCoeffs, [8]int32, [8]int32) {
	y2r := yuv2rgbMatrix(s.InLuma)
	var r2y mat.Dense
	if err := r2y.Inverse(yuv2rgbMatrix(s.OutLuma)); err != nil {
		panic("govconv: singular YUV->RGB matrix: " + err.Error())
	}

	var composed mat.Dense
	composed.Mul(&r2y, y2r)

	inRo := GetRangeOffsets(s.InDepth, s.InRange)
	outRo := GetRangeOffsets(s.OutDepth, s.OutRange)
	inRanges := [3]float64{inRo.YRange, inRo.UVRange, inRo.UVRange}
	outRanges := [3]float64{outRo.YRange, outRo.UVRange, outRo.UVRange}

	var coeffs LaneCoeffs
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			v := roundHalfAwayFromZero(16384 * composed.At(m, n) * outRanges[m] *
				pow2(s.InDepth) / (inRanges[n] * pow2(s.OutDepth)))
			fill(&coeffs, m, n, int32(v))
		}
	}

	var inOffset, outOffset [8]int32
	for lane := range inOffset {
		inOffset[lane] = int32(inRo.Offset)
		outOffset[lane] = int32(outRo.Offset)
	}
	return coeffs, inOffset, outOffset
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
