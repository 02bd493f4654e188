package govconv

import "gonum.org/v1/gonum/mat"

// coneMatrices holds the cone-response bases ChromaticAdaptation can pick
// from. Bradford and von Kries are the canonical published coefficients;
// Identity is the 3x3 identity, used to skip chromatic adaptation
// altogether even when the source and destination white points differ
// (spec.md section 4.2).
var coneMatrices = map[ConeMatrix]*mat.Dense{
	ConeBradford: mat.NewDense(3, 3, []float64{
		0.8951, 0.2664, -0.1614,
		-0.7502, 1.7135, 0.0367,
		0.0389, -0.0685, 1.0296,
	}),
	ConeVonKries: mat.NewDense(3, 3, []float64{
		0.40024, 0.70760, -0.08081,
		-0.22630, 1.16532, 0.04570,
		0, 0, 0.91822,
	}),
	ConeIdentity: mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}),
}

// whitepointXYZ converts a chromaticity's (x, y) into XYZ with Y
// normalised to 1: X = x/y, Y = 1, Z = (1-x-y)/y.
func whitepointXYZ(c chromaticity) *mat.VecDense {
	return mat.NewVecDense(3, []float64{
		c.X / c.Y,
		1,
		(1 - c.X - c.Y) / c.Y,
	})
}

// BuildAdaptationMatrix computes the 3x3 chromatic adaptation matrix
// mapping XYZ values referenced to src's white point into dst's white
// point, using cone as the cone-response basis.
//
// A = M^-1 * diag(d/s) * M, where s = M*w_src and d = M*w_dst.
//
// When cone is ConeIdentity, or src and dst white points are identical,
// this returns the 3x3 identity: no adaptation is applied. Matrix inversion
// and multiplication go through gonum.org/v1/gonum/mat, the small dense
// linear algebra package already pulled in by this AV-processing corpus's
// ausocean-av package.
func BuildAdaptationMatrix(src, dst chromaticity, cone ConeMatrix) *mat.Dense {
	if cone == ConeIdentity || src == dst {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}

	m := coneMatrices[cone]

	var s, d mat.VecDense
	s.MulVec(m, whitepointXYZ(src))
	d.MulVec(m, whitepointXYZ(dst))

	scale := mat.NewDense(3, 3, []float64{
		d.AtVec(0) / s.AtVec(0), 0, 0,
		0, d.AtVec(1) / s.AtVec(1), 0,
		0, 0, d.AtVec(2) / s.AtVec(2),
	})

	var mInv mat.Dense
	if err := mInv.Inverse(m); err != nil {
		// Cone matrices are fixed, well-conditioned constants; a singular
		// matrix here would indicate a programming error in coneMatrices.
		panic("govconv: singular cone-response matrix: " + err.Error())
	}

	var tmp, a mat.Dense
	tmp.Mul(&mInv, scale)
	a.Mul(&tmp, m)
	return &a
}
