package govconv

// align rounds n up to the nearest multiple of to.
func align(n, to int) int {
	return (n + to - 1) / to * to
}

// ScratchManager owns the three intermediate canonical-RGB planes a
// conversion writes through, sized stride*height. Buffers are resized
// lazily, only when the dimensions that drive their size actually change,
// mirroring the Plan's own per-resource rebuild-on-change rule.
//
// Dither error rows are deliberately NOT owned here: spec.md section 5
// requires them "per-component and per-slice ... never shared across
// slices", so each Engine.ConvertSlice call allocates its own via
// NewSliceDither instead of reaching into shared state -- sharing one set
// of rows across concurrently-running slices (see ConvertParallel) would be
// a data race.
type ScratchManager struct {
	width, height int
	pixelBytes    int
	stride        int

	rgb [3][]byte
}

// NewScratchManager constructs an empty ScratchManager. Call Resize before
// first use.
func NewScratchManager() *ScratchManager {
	return &ScratchManager{}
}

// Resize ensures the scratch buffers are large enough for width x height at
// pixelBytes per canonical-RGB sample (2 for the int16/half-float paths, 4
// for the single-float path). It is a no-op when the resulting byte size
// hasn't changed, per spec.md section 4.8's reallocate-on-stride*height rule.
func (s *ScratchManager) Resize(width, height, pixelBytes int) {
	stride := align(width*pixelBytes, 32)
	if stride == s.stride && height == s.height && pixelBytes == s.pixelBytes && s.rgb[0] != nil {
		return
	}

	s.width, s.height, s.pixelBytes, s.stride = width, height, pixelBytes, stride

	planeLen := stride * height
	for i := range s.rgb {
		if cap(s.rgb[i]) < planeLen {
			s.rgb[i] = make([]byte, planeLen)
		} else {
			s.rgb[i] = s.rgb[i][:planeLen]
		}
	}
}

// RGBPlane returns the n-th canonical-RGB intermediate plane, sized
// stride*height bytes. Planes are indexed in the R, G, B order the
// coefficient tables use, not the external G, B, R plane layout.
func (s *ScratchManager) RGBPlane(n int) []byte { return s.rgb[n] }

// Stride returns the current byte stride of the RGB intermediate planes.
func (s *ScratchManager) Stride() int { return s.stride }

// SliceDither holds one slice's six dither error-diffusion rows (two
// alternating rows per RGB component), pre-padded by one element on each
// side so the Floyd-Steinberg-banding kernel can index -1 and width.
type SliceDither struct {
	rows [3][2][]int32
}

// NewSliceDither allocates a fresh, zeroed SliceDither sized for width,
// owned exclusively by the slice that requests it.
func NewSliceDither(width int) *SliceDither {
	d := &SliceDither{}
	rowLen := width + 4
	for c := 0; c < 3; c++ {
		for r := 0; r < 2; r++ {
			d.rows[c][r] = make([]int32, rowLen)
		}
	}
	return d
}

// Row returns the pre-padded error-diffusion row for component c (0=Y/R,
// 1=U/G, 2=V/B) and alternating row index r (0 or 1). Index 0 of the
// returned slice corresponds to column -1; valid columns run from 1 to
// width, with width+1..width+3 as the right-hand overrun the FSB kernel
// writes into.
func (d *SliceDither) Row(c, r int) []int32 { return d.rows[c][r&1] }
