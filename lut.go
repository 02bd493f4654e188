package govconv

import "github.com/x448/float16"

// IntLUTSize is the number of entries in each integer-path lookup table.
const IntLUTSize = 32768

// intLUTBias is the index offset such that index n represents the real
// value (n - intLUTBias) / rgbScale: index 2048 is 0.0, 30720 is 1.0, leaving
// symmetric under/overflow headroom on both sides of the canonical range.
const intLUTBias = 2048

// HalfLUTSize is the number of entries in each half-float-path lookup
// table: one entry per possible raw half-float bit pattern.
const HalfLUTSize = 65536

// GammaLUT pairs a linearise and delinearise lookup table for the integer
// pixel path. Index n in [0, IntLUTSize) represents the real value
// (n - intLUTBias) / rgbScale.
type GammaLUT struct {
	Lin, Delin [IntLUTSize]int16
}

// HalfGammaLUT pairs a linearise and delinearise lookup table for the
// half-float pixel path, indexed directly by the raw half-float bit
// pattern via github.com/x448/float16.Float16, rather than a hand-rolled
// bit-pattern struct.
type HalfGammaLUT struct {
	Lin, Delin [HalfLUTSize]float16.Float16
}

func clipInt16(v float64) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(roundHalfAwayFromZero(v))
	}
}

// BuildGammaLUT constructs the integer linearise/delinearise LUT pair for a
// (in, out) Transfer, per spec.md section 4.5: for each index n, v =
// (n - 2048) / 28672; Lin[n] = clip_int16(round(in.Linearise(v) * 28672))
// and Delin[n] = clip_int16(round(out.Delinearise(v) * 28672)).
//
// in.Coeffs must be Analytic: the linearise branch always requires
// closed-form input coefficients, even when out is non-analytic.
func BuildGammaLUT(in, out Transfer) *GammaLUT {
	if !in.Coeffs.Analytic() {
		panic("govconv: BuildGammaLUT requires an analytic input transfer")
	}

	lut := new(GammaLUT)
	for n := 0; n < IntLUTSize; n++ {
		v := float64(n-intLUTBias) / rgbScale
		lut.Lin[n] = clipInt16(in.Linearise(v) * rgbScale)
		lut.Delin[n] = clipInt16(out.Delinearise(v) * rgbScale)
	}
	return lut
}

// BuildHalfGammaLUT constructs the half-float linearise/delinearise LUT
// pair for a (in, out) Transfer, per spec.md section 4.5: for each raw
// half-float index n, v = half-to-float(n); Lin[n] and Delin[n] store the
// half-float encodings of in.Linearise(v) and out.Delinearise(v).
func BuildHalfGammaLUT(in, out Transfer) *HalfGammaLUT {
	if !in.Coeffs.Analytic() {
		panic("govconv: BuildHalfGammaLUT requires an analytic input transfer")
	}

	lut := new(HalfGammaLUT)
	for n := 0; n < HalfLUTSize; n++ {
		v := float64(float16.Float16(n).Float32())
		lut.Lin[n] = float16.Fromfloat32(float32(in.Linearise(v)))
		lut.Delin[n] = float16.Fromfloat32(float32(out.Delinearise(v)))
	}
	return lut
}
