package govconv_test

import (
	"testing"

	"github.com/GreatValueCreamSoda/govconv"
)

func Test_ScratchManager_ResizeAllocatesAllThreePlanes(t *testing.T) {
	s := govconv.NewScratchManager()
	s.Resize(64, 32, 2)

	wantLen := s.Stride() * 32
	for n := 0; n < 3; n++ {
		if got := len(s.RGBPlane(n)); got != wantLen {
			t.Fatalf("plane %d length = %d, want %d", n, got, wantLen)
		}
	}
}

func Test_ScratchManager_ResizeIsNoopWhenUnchanged(t *testing.T) {
	s := govconv.NewScratchManager()
	s.Resize(64, 32, 2)
	plane0 := s.RGBPlane(0)
	plane0[0] = 0xAB

	s.Resize(64, 32, 2)
	if s.RGBPlane(0)[0] != 0xAB {
		t.Fatal("Resize with unchanged dimensions should not reallocate or clear buffers")
	}
}

func Test_ScratchManager_ResizeGrowsOnDimensionChange(t *testing.T) {
	s := govconv.NewScratchManager()
	s.Resize(16, 16, 2)
	small := len(s.RGBPlane(0))

	s.Resize(64, 64, 2)
	big := len(s.RGBPlane(0))
	if big <= small {
		t.Fatalf("plane length after growing dimensions = %d, want > %d", big, small)
	}
}

// Test_SliceDither_FreshInstancePerSlice exercises the concurrency fix this
// type exists for: two independently-constructed SliceDithers never share
// backing arrays, so concurrent slices in ConvertParallel cannot race on
// each other's error-diffusion state.
func Test_SliceDither_FreshInstancePerSlice(t *testing.T) {
	a := govconv.NewSliceDither(32)
	b := govconv.NewSliceDither(32)

	a.Row(0, 0)[1] = 7
	if b.Row(0, 0)[1] != 0 {
		t.Fatal("two SliceDither instances must not share backing storage")
	}
}

func Test_SliceDither_RowAlternatesByParity(t *testing.T) {
	d := govconv.NewSliceDither(16)
	d.Row(0, 0)[1] = 1
	d.Row(0, 2)[1] = 9 // r&1 == 0, same row as Row(0,0)
	if d.Row(0, 0)[1] != 9 {
		t.Fatal("Row(c, r) should select by r&1, aliasing even r values to the same row")
	}
	if d.Row(0, 1)[1] == 9 {
		t.Fatal("Row(c, 1) should be a distinct row from Row(c, 0)")
	}
}
