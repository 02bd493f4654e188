// Package frameio is the host-facing plane/stride/metadata adapter of
// SPEC_FULL.md section 3: Frame wraps raw pixel planes the same way
// govship's example tool copies plane data out of a
// github.com/GreatValueCreamSoda/goffms2 decoded frame (see
// example/video_comparator.go's Data/Linesize copy loop), but into
// govconv's Frame/ColorMetadata shapes instead of a vship comparison
// buffer.
package frameio

import (
	"github.com/GreatValueCreamSoda/goffms2"
	"github.com/GreatValueCreamSoda/gopixfmts"

	"github.com/GreatValueCreamSoda/govconv"
)

// Frame implements govconv.Frame over independently-owned plane buffers.
type Frame struct {
	planes  [4][]byte
	strides [4]int

	Meta          govconv.ColorMetadata
	Width, Height int
}

func (f *Frame) Plane(i int) []byte { return f.planes[i] }
func (f *Frame) Stride(i int) int   { return f.strides[i] }

// FromFFMS2 adapts a decoded goffms2.Frame into a frameio.Frame, reading
// color metadata from the same fields govship's
// example/colorspace_parsing.go inspects (ColorSpace, ColorPrimaries,
// TransferCharateristics, ColorRange).
func FromFFMS2(fr *goffms2.Frame) *Frame {
	out := &Frame{
		Width:  fr.ScaledWidth,
		Height: fr.ScaledHeight,
	}
	for p := 0; p < 4 && len(fr.Data[p]) > 0; p++ {
		out.planes[p] = fr.Data[p]
		out.strides[p] = fr.Linesize[p]
	}

	out.Meta = govconv.ColorMetadata{
		Matrix:    govconv.MatrixTag(fr.ColorSpace),
		Primaries: govconv.PrimariesTag(fr.ColorPrimaries),
		Transfer:  govconv.TransferTag(fr.TransferCharateristics),
		Range:     rangeFromFFMS(fr.ColorRange),
	}
	return out
}

// rangeFromFFMS mirrors the ColorRange comparison in govship's
// example/colorspace_parsing.go: an unset or MPEG value means limited range.
func rangeFromFFMS(r int) govconv.Range {
	switch {
	case r == int(gopixfmts.ColorRangeJPEG):
		return govconv.RangePC
	case r == 0 || r == int(gopixfmts.ColorRangeMPEG):
		return govconv.RangeTV
	default:
		return govconv.RangeUnspecified
	}
}

// Alloc builds an empty output Frame sized width x height for fmtDesc,
// allocating byte planes at the stride ConvertSlice expects: one byte per
// sample at 8-bit depth, two bytes at 10/12/16-bit and half-float, four
// bytes at single-float. Chroma planes are allocated at their subsampled
// resolution.
func Alloc(fmtDesc govconv.PixelFormatDescriptor, width, height int, meta govconv.ColorMetadata) *Frame {
	sampleBytes := 1
	switch {
	case fmtDesc.Depth() == 32:
		sampleBytes = 4
	case fmtDesc.Depth() > 8:
		sampleBytes = 2
	}

	out := &Frame{Width: width, Height: height, Meta: meta}

	numPlanes := 3
	if fmtDesc.HasAlpha() {
		numPlanes = 4
	}

	for p := 0; p < numPlanes; p++ {
		w, h := width, height
		if fmtDesc.Family() == govconv.FamilyYUV && (p == govconv.PlaneU || p == govconv.PlaneV) {
			w >>= fmtDesc.Log2ChromaW()
			h >>= fmtDesc.Log2ChromaH()
		}
		stride := w * sampleBytes
		out.strides[p] = stride
		out.planes[p] = make([]byte, stride*h)
	}
	return out
}
