package govconv_test

import (
	"math"
	"testing"

	"github.com/GreatValueCreamSoda/govconv"
)

func Test_PrimaryMap_SamePrimariesIsIdentityPassthrough(t *testing.T) {
	bt709, ok := govconv.LookupPrimaries(govconv.PrimariesBT709)
	if !ok {
		t.Fatal("PrimariesBT709 should be recognised")
	}

	m, passthrough := govconv.PrimaryMap(bt709, bt709, govconv.ConeBradford)
	if !passthrough {
		t.Fatal("identical primaries should report passthrough=true")
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.0
			if r == c {
				want = 1.0
			}
			if m.At(r, c) != want {
				t.Fatalf("m[%d][%d] = %v, want %v", r, c, m.At(r, c), want)
			}
		}
	}
}

func Test_PrimaryMap_DifferentPrimariesIsNotPassthrough(t *testing.T) {
	bt709, _ := govconv.LookupPrimaries(govconv.PrimariesBT709)
	bt2020, _ := govconv.LookupPrimaries(govconv.PrimariesBT2020)

	m, passthrough := govconv.PrimaryMap(bt709, bt2020, govconv.ConeBradford)
	if passthrough {
		t.Fatal("distinct primaries should report passthrough=false")
	}
	// bt709 -> bt2020 widens the gamut: the green row must mix some red and
	// blue rather than staying a pure identity row.
	if math.Abs(m.At(1, 1)-1) < 1e-9 {
		t.Fatalf("green row = %v, expected gamut remapping away from identity", m.At(1, 1))
	}
}

func Test_BuildAdaptationMatrix_IdentityConeSkipsAdaptation(t *testing.T) {
	bt709, _ := govconv.LookupPrimaries(govconv.PrimariesBT709)
	bt470m, _ := govconv.LookupPrimaries(govconv.PrimariesBT470M)

	a := govconv.BuildAdaptationMatrix(bt709.W, bt470m.W, govconv.ConeIdentity)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.0
			if r == c {
				want = 1.0
			}
			if a.At(r, c) != want {
				t.Fatalf("identity-cone adaptation[%d][%d] = %v, want %v", r, c, a.At(r, c), want)
			}
		}
	}
}

func Test_BuildAdaptationMatrix_SameWhitePointSkipsAdaptation(t *testing.T) {
	bt709, _ := govconv.LookupPrimaries(govconv.PrimariesBT709)
	a := govconv.BuildAdaptationMatrix(bt709.W, bt709.W, govconv.ConeBradford)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.0
			if r == c {
				want = 1.0
			}
			if a.At(r, c) != want {
				t.Fatalf("same-white-point adaptation[%d][%d] = %v, want %v", r, c, a.At(r, c), want)
			}
		}
	}
}
