package govconv

import "gonum.org/v1/gonum/mat"

// PrimariesDesc describes an RGB gamut: the (x, y) chromaticities of its
// red, green, and blue primaries, and its white point.
type PrimariesDesc struct {
	R, G, B, W chromaticity
}

// rgbToXYZ solves the standard primaries system: find a diagonal scale S
// such that M*S maps (1,1,1) to the white point in XYZ, where M's columns
// are the R/G/B chromaticities lifted to XYZ. The result is the RGB->XYZ
// matrix for this gamut.
func rgbToXYZ(d PrimariesDesc) *mat.Dense {
	m := mat.NewDense(3, 3, []float64{
		d.R.X / d.R.Y, d.G.X / d.G.Y, d.B.X / d.B.Y,
		1, 1, 1,
		(1 - d.R.X - d.R.Y) / d.R.Y, (1 - d.G.X - d.G.Y) / d.G.Y, (1 - d.B.X - d.B.Y) / d.B.Y,
	})

	w := whitepointXYZ(d.W)

	var s mat.VecDense
	if err := s.SolveVec(m, w); err != nil {
		panic("govconv: singular primaries matrix: " + err.Error())
	}

	scale := mat.NewDense(3, 3, []float64{
		s.AtVec(0), 0, 0,
		0, s.AtVec(1), 0,
		0, 0, s.AtVec(2),
	})

	var out mat.Dense
	out.Mul(m, scale)
	return &out
}

// PrimaryMap composes the RGB->RGB matrix mapping linear-light values in
// the in gamut to linear-light values in the out gamut:
//
//	primary_map = (RGB->XYZ)_out^-1 * A * (RGB->XYZ)_in
//
// where A is the chromatic adaptation matrix between the two white points
// (identity when cone is ConeIdentity or the white points match). The
// second return value is lrgb2lrgb_passthrough: true iff in and out are
// bit-equal primaries descriptors.
func PrimaryMap(in, out PrimariesDesc, cone ConeMatrix) (*mat.Dense, bool) {
	if in == out {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), true
	}

	xyzIn := rgbToXYZ(in)
	xyzOut := rgbToXYZ(out)
	a := BuildAdaptationMatrix(in.W, out.W, cone)

	var xyzOutInv mat.Dense
	if err := xyzOutInv.Inverse(xyzOut); err != nil {
		panic("govconv: singular RGB->XYZ matrix: " + err.Error())
	}

	var tmp, result mat.Dense
	tmp.Mul(&xyzOutInv, a)
	result.Mul(&tmp, xyzIn)
	return &result, false
}
