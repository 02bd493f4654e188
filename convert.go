package govconv

import (
	"context"
	"math"

	"github.com/x448/float16"
	"golang.org/x/sync/errgroup"
)

// Frame is the minimal host-facing view of pixel data the core operates on:
// one byte slice and one byte stride per plane. Plane order and count are
// determined by the format family: YUV frames expose [Y, U, V] (optionally
// +A at index 3); RGB-family float frames expose [G, B, R] (optionally +A),
// matching the planar GBR(A) layout spec.md section 3 names. Samples within
// a plane are little-endian: 1 byte/sample at 8-bit depth, 2 bytes/sample
// at 10/12/16-bit and half-float, 4 bytes/sample at 32-bit float.
type Frame interface {
	Plane(i int) []byte
	Stride(i int) int
}

// Plane index constants for the two supported plane layouts.
const (
	PlaneY = 0
	PlaneU = 1
	PlaneV = 2

	PlaneG = 0
	PlaneB = 1
	PlaneR = 2

	PlaneAlpha = 3
)

// chromaShift gives (log2ChromaW, log2ChromaH) for a subsamplingIndex, the
// same table subsamplingIndex itself inverts; kept alongside the dispatch
// table so ConvertSlice never recomputes it per pixel.
var chromaShift = [3][2]int{
	{0, 0}, // 4:4:4
	{1, 0}, // 4:2:2
	{1, 1}, // 4:2:0
}

// sampleWidth returns bytes per sample for a dispatch-table depthIndex, per
// spec.md section 9's "static 2D dispatch table": depth alone decides the
// integer-path byte width, independent of subsampling.
var sampleWidth = [len(supportedDepths)]int{1, 2, 2, 2, 4}

func readSample(plane []byte, stride, width, x, y int) int32 {
	off := y*stride + x*width
	switch width {
	case 1:
		return int32(plane[off])
	case 2:
		return int32(plane[off]) | int32(plane[off+1])<<8
	default:
		return int32(plane[off]) | int32(plane[off+1])<<8 |
			int32(plane[off+2])<<16 | int32(plane[off+3])<<24
	}
}

func writeSample(plane []byte, stride, width, x, y int, v int32) {
	off := y*stride + x*width
	switch width {
	case 1:
		plane[off] = byte(v)
	case 2:
		plane[off] = byte(v)
		plane[off+1] = byte(v >> 8)
	default:
		plane[off] = byte(v)
		plane[off+1] = byte(v >> 8)
		plane[off+2] = byte(v >> 16)
		plane[off+3] = byte(v >> 24)
	}
}

func readInt16(plane []byte, stride, x, y int) int16 {
	off := y*stride + x*2
	return int16(uint16(plane[off]) | uint16(plane[off+1])<<8)
}

func writeInt16(plane []byte, stride, x, y int, v int16) {
	off := y*stride + x*2
	u := uint16(v)
	plane[off] = byte(u)
	plane[off+1] = byte(u >> 8)
}

func clipUint15(v int32) int32 {
	switch {
	case v < 0:
		return 0
	case v > 32767:
		return 32767
	default:
		return v
	}
}

func clipDepth(v int32, depth int) int32 {
	max := int32(1)<<uint(depth) - 1
	switch {
	case v < 0:
		return 0
	case v > max:
		return max
	default:
		return v
	}
}

// Engine executes a Plan over frame slices: the fixed-point integer
// pipeline, the half-float pipeline, and the single-float pipeline of
// spec.md section 4.7. It holds no per-frame state of its own; ScratchManager
// supplies the shared intermediate RGB planes, and each slice allocates its
// own SliceDither when FSB dithering is enabled.
type Engine struct {
	scratch *ScratchManager
}

// NewEngine creates an Engine backed by scratch. scratch must be sized via
// ScratchManager.Resize before ConvertSlice is called.
func NewEngine(scratch *ScratchManager) *Engine {
	return &Engine{scratch: scratch}
}

// ConvertSlice converts rows [h1, h2) of in into out according to plan.
// h1 and h2 must be even (chroma row boundaries); callers that partition a
// frame across workers are responsible for that alignment (see
// ConvertParallel).
func (e *Engine) ConvertSlice(plan *Plan, in, out Frame, width, h1, h2 int) error {
	if plan.YUV2YUVPassthrough {
		copySlice(in, out, plan.InFmt, h1, h2, width)
		return nil
	}
	if plan.YUV2YUVFastmode {
		e.yuv2yuvFastmode(plan, in, out, width, h1, h2)
		return nil
	}

	switch {
	case plan.InFmt.Family() != plan.OutFmt.Family():
		// The only family crossing Build ever accepts: integer YUV on one
		// side, floating-point RGB on the other (see Converter.Build).
		if plan.InFmt.Family() == FamilyYUV {
			e.yuv2rgbFloatSlice(plan, in, out, width, h1, h2)
		} else {
			e.rgbFloat2yuvSlice(plan, in, out, width, h1, h2)
		}
	case plan.InFmt.Float() && plan.OutFmt.Float():
		switch {
		case plan.RGB2RGBPassthrough && plan.InFmt.Depth() == plan.OutFmt.Depth():
			copySlice(in, out, plan.InFmt, h1, h2, width)
		case plan.RGB2RGBPassthrough:
			e.floatRepackSlice(plan, in, out, width, h1, h2)
		case plan.InFmt.Depth() == 16 && plan.OutFmt.Depth() == 16:
			e.halfFloatSlice(plan, in, out, width, h1, h2)
		default:
			e.singleFloatSlice(plan, in, out, width, h1, h2)
		}
	default:
		e.integerSlice(plan, in, out, width, h1, h2)
	}
	return nil
}

// copySlice memcpy's every plane row-range [h1, h2) (scaled by chroma shift
// for chroma planes), used for yuv2yuv_passthrough.
func copySlice(in, out Frame, fmtDesc PixelFormatDescriptor, h1, h2, width int) {
	shiftW, shiftH := fmtDesc.Log2ChromaW(), fmtDesc.Log2ChromaH()
	planes := 3
	if fmtDesc.HasAlpha() {
		planes = 4
	}
	for p := 0; p < planes; p++ {
		rowBytes := width
		lo, hi := h1, h2
		if p == PlaneU || p == PlaneV {
			rowBytes >>= shiftW
			lo >>= shiftH
			hi >>= shiftH
		}
		sampleBytes := sampleWidth[mustDepthIndex(fmtDesc.Depth())]
		rowBytes *= sampleBytes
		inStride, outStride := in.Stride(p), out.Stride(p)
		inPlane, outPlane := in.Plane(p), out.Plane(p)
		for y := lo; y < hi; y++ {
			copy(outPlane[y*outStride:y*outStride+rowBytes], inPlane[y*inStride:y*inStride+rowBytes])
		}
	}
}

// yuv2yuvFastmode applies the single composed YUV->YUV matrix directly,
// bypassing linear light entirely (spec.md section 4.7, last paragraph).
func (e *Engine) yuv2yuvFastmode(plan *Plan, in, out Frame, width, h1, h2 int) {
	// Fastmode requires matching chroma subsampling (see Converter.Build),
	// so the input index describes both sides.
	shift := chromaShift[plan.InSubsamplingIdx]
	inW, outW := sampleWidth[plan.InDepthIdx], sampleWidth[plan.OutDepthIdx]

	// The composed coefficients carry out_rng*2^in_depth/(in_rng*2^out_depth)
	// on top of the 14 fractional bits, so the renormalising shift depends on
	// both depths.
	sh := uint(14 + plan.InFmt.Depth() - plan.OutFmt.Depth())
	rnd := int64(1) << (sh - 1)

	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			yuv := [3]int32{
				readSample(in.Plane(PlaneY), in.Stride(PlaneY), inW, x, y) - plan.YUV2YUVOffsetIn[0],
			}
			cx, cy := x>>shift[0], y>>shift[1]
			yuv[1] = readSample(in.Plane(PlaneU), in.Stride(PlaneU), inW, cx, cy) - plan.YUV2YUVOffsetIn[1]
			yuv[2] = readSample(in.Plane(PlaneV), in.Stride(PlaneV), inW, cx, cy) - plan.YUV2YUVOffsetIn[2]

			chromaSample := x&((1<<shift[0])-1) == 0 && y&((1<<shift[1])-1) == 0
			for n := 0; n < 3; n++ {
				if n > 0 && !chromaSample {
					continue
				}
				acc := rnd
				for m := 0; m < 3; m++ {
					acc += int64(plan.YUV2YUVCoeffs[n][m][0]) * int64(yuv[m])
				}
				v := int32(acc>>sh) + plan.YUV2YUVOffsetOut[n]
				v = clipDepth(v, plan.OutFmt.Depth())
				switch n {
				case 0:
					writeSample(out.Plane(PlaneY), out.Stride(PlaneY), outW, x, y, v)
				case 1:
					writeSample(out.Plane(PlaneU), out.Stride(PlaneU), outW, cx, cy, v)
				case 2:
					writeSample(out.Plane(PlaneV), out.Stride(PlaneV), outW, cx, cy, v)
				}
			}
		}
	}
	if plan.InFmt.HasAlpha() && plan.OutFmt.HasAlpha() {
		copyPlane(in.Plane(PlaneAlpha), out.Plane(PlaneAlpha), in.Stride(PlaneAlpha), out.Stride(PlaneAlpha), width, h1, h2, inW)
	}
}

func copyPlane(src, dst []byte, srcStride, dstStride, width, h1, h2, sampleBytes int) {
	rowBytes := width * sampleBytes
	for y := h1; y < h2; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
}

// integerSlice implements spec.md section 4.7's integer pipeline for
// 8/10/12-bit YUV formats, steps 1-5 in order.
func (e *Engine) integerSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	inShift := chromaShift[plan.InSubsamplingIdx]
	outShift := chromaShift[plan.OutSubsamplingIdx]
	inW := sampleWidth[plan.InDepthIdx]
	outW := sampleWidth[plan.OutDepthIdx]
	rgbStride := e.scratch.Stride()

	// The input coefficients carry 28672*2^(in_depth-1)/range, so shifting by
	// in_depth-1 lands full-scale luma on the canonical 28672 == 1.0 mark.
	inSh := uint(plan.InFmt.Depth() - 1)
	inRnd := int64(1) << (inSh - 1)

	// Step 1: YUV -> RGB, chroma nearest-neighbour upsampled to luma grid.
	for y := h1; y < h2; y++ {
		cy := y >> inShift[1]
		for x := 0; x < width; x++ {
			cx := x >> inShift[0]
			yv := readSample(in.Plane(PlaneY), in.Stride(PlaneY), inW, x, y) - plan.YUVOffsetIn[0]
			uv := readSample(in.Plane(PlaneU), in.Stride(PlaneU), inW, cx, cy) - plan.YUVOffsetIn[1]
			vv := readSample(in.Plane(PlaneV), in.Stride(PlaneV), inW, cx, cy) - plan.YUVOffsetIn[2]
			src := [3]int32{yv, uv, vv}

			for n := 0; n < 3; n++ {
				acc := inRnd
				for m := 0; m < 3; m++ {
					acc += int64(plan.YUV2RGBCoeffs[n][m][0]) * int64(src[m])
				}
				writeInt16(e.scratch.RGBPlane(n), rgbStride, x, y, int16(clipInt32ToInt16(acc>>inSh)))
			}
		}
	}

	if !plan.RGB2RGBPassthrough {
		for n := 0; n < 3; n++ {
			plane := e.scratch.RGBPlane(n)
			for y := h1; y < h2; y++ {
				for x := 0; x < width; x++ {
					v := readInt16(plane, rgbStride, x, y)
					idx := clipUint15(2048 + int32(v))
					writeInt16(plane, rgbStride, x, y, plan.IntLUT.Lin[idx])
				}
			}
		}

		if !plan.LRGB2LRGBPassthrough {
			for y := h1; y < h2; y++ {
				for x := 0; x < width; x++ {
					var src [3]int32
					for n := 0; n < 3; n++ {
						src[n] = int32(readInt16(e.scratch.RGBPlane(n), rgbStride, x, y))
					}
					for n := 0; n < 3; n++ {
						acc := int64(1) << 13
						for m := 0; m < 3; m++ {
							acc += int64(plan.LRGB2LRGBCoeffs[n][m][0]) * int64(src[m])
						}
						writeInt16(e.scratch.RGBPlane(n), rgbStride, x, y, int16(clipInt32ToInt16(acc>>14)))
					}
				}
			}
		}

		for n := 0; n < 3; n++ {
			plane := e.scratch.RGBPlane(n)
			for y := h1; y < h2; y++ {
				for x := 0; x < width; x++ {
					v := readInt16(plane, rgbStride, x, y)
					idx := clipUint15(2048 + int32(v))
					writeInt16(plane, rgbStride, x, y, plan.IntLUT.Delin[idx])
				}
			}
		}
	}

	// Step 5: RGB -> YUV with nearest-neighbour chroma downsample, optional
	// Floyd-Steinberg-banding dither. Dither rows are allocated fresh per
	// slice (never shared) so concurrent slices from ConvertParallel cannot
	// race on them.
	var dither *SliceDither
	if plan.Dither == DitherFSB {
		dither = NewSliceDither(width)
	}
	outSh := uint(29 - plan.OutFmt.Depth())
	outRnd := int64(1) << (outSh - 1)
	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			var rgb [3]int32
			for n := 0; n < 3; n++ {
				rgb[n] = int32(readInt16(e.scratch.RGBPlane(n), rgbStride, x, y))
			}
			chromaSample := x&((1<<outShift[0])-1) == 0 && y&((1<<outShift[1])-1) == 0

			for n := 0; n < 3; n++ {
				if n > 0 && !chromaSample {
					continue
				}
				acc := int64(0)
				for m := 0; m < 3; m++ {
					acc += int64(plan.RGB2YUVCoeffs[n][m][0]) * int64(rgb[m])
				}
				acc += int64(plan.YUVOffsetOut[n]) << outSh

				// Chroma diffuses its error at chroma resolution; the row
				// parity and column must follow the downsampled grid.
				dx, drow := x, y&1
				if n > 0 {
					dx, drow = x>>outShift[0], (y>>outShift[1])&1
				}

				var v int32
				if plan.Dither == DitherFSB {
					v = fsbQuantize(dither, n, drow, dx, acc, outSh, plan.OutFmt.Depth())
				} else {
					v = clipDepth(int32((acc+outRnd)>>outSh), plan.OutFmt.Depth())
				}

				switch n {
				case 0:
					writeSample(out.Plane(PlaneY), out.Stride(PlaneY), outW, x, y, v)
				case 1:
					writeSample(out.Plane(PlaneU), out.Stride(PlaneU), outW, x>>outShift[0], y>>outShift[1], v)
				case 2:
					writeSample(out.Plane(PlaneV), out.Stride(PlaneV), outW, x>>outShift[0], y>>outShift[1], v)
				}
			}
		}
	}

	if plan.InFmt.HasAlpha() && plan.OutFmt.HasAlpha() {
		copyPlane(in.Plane(PlaneAlpha), out.Plane(PlaneAlpha), in.Stride(PlaneAlpha), out.Stride(PlaneAlpha), width, h1, h2, inW)
	}
}

// fsbQuantize applies Floyd-Steinberg-banding error diffusion to the
// pre-shift accumulator acc (still carrying sh fractional bits) at column x
// of component c, row parity row (current vs next alternating dither row per
// spec.md section 4.8's pre-padded two-row scratch), then shifts and clips
// to depth. Errors are diffused at the full 2^sh fractional scale so nothing
// is lost to integer truncation; each consumed error cell is zeroed so the
// row can be reused two rows later without stale carry-over.
func fsbQuantize(d *SliceDither, c, row, x int, acc int64, sh uint, depth int) int32 {
	cur := d.Row(c, row)
	next := d.Row(c, row^1)

	// cur/next are pre-padded by 1: index i+1 is column i.
	acc += int64(cur[x+1])
	cur[x+1] = 0

	clipped := clipDepth(int32(acc>>sh), depth)
	errv := acc - int64(clipped)<<sh

	cur[x+2] += int32(errv * 7 / 16)
	next[x] += int32(errv * 3 / 16)
	next[x+1] += int32(errv * 5 / 16)
	next[x+2] += int32(errv * 1 / 16)

	return clipped
}

func clipInt32ToInt16(v int64) int32 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int32(v)
	}
}

// halfFloatSlice implements spec.md section 4.7's half-float pipeline for
// GBRPF16/GBRAPF16: planar (G, B, R) half-precision input, LUT-driven
// linearise/delinearise, float primary mapping.
func (e *Engine) halfFloatSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	directDelin := plan.InMeta.Transfer == TransferLinear && plan.LRGB2LRGBPassthrough
	for p := 0; p < 3; p++ {
		inPlane, outPlane := in.Plane(p), out.Plane(p)
		inStride, outStride := in.Stride(p), out.Stride(p)
		for y := h1; y < h2; y++ {
			for x := 0; x < width; x++ {
				raw := uint16(readSample(inPlane, inStride, 2, x, y))
				var result float16.Float16
				if directDelin {
					result = plan.HalfLUT.Delin[raw]
				} else {
					result = plan.HalfLUT.Lin[raw]
				}
				writeSample(outPlane, outStride, 2, x, y, int32(uint16(result)))
			}
		}
	}
	if !directDelin {
		e.halfPrimaryMapAndDelin(plan, out, width, h1, h2)
	}
	if plan.InFmt.HasAlpha() && plan.OutFmt.HasAlpha() {
		copyPlane(in.Plane(PlaneAlpha), out.Plane(PlaneAlpha), in.Stride(PlaneAlpha), out.Stride(PlaneAlpha), width, h1, h2, 2)
	}
}

// halfPrimaryMapAndDelin applies the float primary-mapping matrix (if not
// lrgb2lrgb_passthrough) and the delinearise LUT, operating in place on out,
// which at this point holds linearised half-float samples. The coefficient
// matrix is in R,G,B component order while the planes are laid out G,B,R, so
// reads and writes go through rgbPlaneOrder.
func (e *Engine) halfPrimaryMapAndDelin(plan *Plan, out Frame, width, h1, h2 int) {
	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			var src [3]float64
			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				raw := readSample(out.Plane(p), out.Stride(p), 2, x, y)
				src[n] = float64(float16.Float16(uint16(raw)).Float32())
			}

			var mapped [3]float64
			if plan.LRGB2LRGBPassthrough {
				mapped = src
			} else {
				for n := 0; n < 3; n++ {
					acc := 0.0
					for m := 0; m < 3; m++ {
						acc += plan.LRGB2LRGBCoeffsF[n][m] * src[m]
					}
					mapped[n] = acc
				}
			}

			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				idx := float16.Fromfloat32(float32(mapped[n]))
				result := plan.HalfLUT.Delin[uint16(idx)]
				writeSample(out.Plane(p), out.Stride(p), 2, x, y, int32(uint16(result)))
			}
		}
	}
}

// singleFloatSlice implements spec.md section 4.7's single-float pipeline:
// same shape as half-float but (de)linearise is computed from the closed
// form per pixel rather than via LUT. It also serves mixed half/single
// conversions, reading and writing each side at its own sample width.
func (e *Engine) singleFloatSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	inWide := plan.InFmt.Depth() == 32
	outWide := plan.OutFmt.Depth() == 32

	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			var src [3]float64
			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				src[n] = readFloatSample(in.Plane(p), in.Stride(p), inWide, x, y)
			}

			var lin [3]float64
			for n := 0; n < 3; n++ {
				lin[n] = plan.InTransfer.Linearise(src[n])
			}

			var mapped [3]float64
			if plan.LRGB2LRGBPassthrough {
				mapped = lin
			} else {
				for n := 0; n < 3; n++ {
					acc := 0.0
					for m := 0; m < 3; m++ {
						acc += plan.LRGB2LRGBCoeffsF[n][m] * lin[m]
					}
					mapped[n] = acc
				}
			}

			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				v := plan.OutTransfer.Delinearise(mapped[n])
				writeFloatSample(out.Plane(p), out.Stride(p), outWide, x, y, v)
			}
		}
	}
	if plan.InFmt.HasAlpha() && plan.OutFmt.HasAlpha() {
		copyFloatAlpha(plan, in, out, width, h1, h2)
	}
}

// floatRepackSlice handles rgb2rgb_passthrough between float formats of
// different sample widths: samples are re-encoded half<->single with no
// linearisation, matrixing, or tone mapping.
func (e *Engine) floatRepackSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	inWide := plan.InFmt.Depth() == 32
	outWide := plan.OutFmt.Depth() == 32

	planes := 3
	if plan.InFmt.HasAlpha() && plan.OutFmt.HasAlpha() {
		planes = 4
	}
	for p := 0; p < planes; p++ {
		for y := h1; y < h2; y++ {
			for x := 0; x < width; x++ {
				v := readFloatSample(in.Plane(p), in.Stride(p), inWide, x, y)
				writeFloatSample(out.Plane(p), out.Stride(p), outWide, x, y, v)
			}
		}
	}
}

// copyFloatAlpha carries the alpha plane across a float conversion: a plain
// memcpy when both sides share a sample width, a half<->single re-encode
// otherwise. Alpha values themselves are never transformed.
func copyFloatAlpha(plan *Plan, in, out Frame, width, h1, h2 int) {
	inWide := plan.InFmt.Depth() == 32
	outWide := plan.OutFmt.Depth() == 32
	if inWide == outWide {
		bytes := 2
		if inWide {
			bytes = 4
		}
		copyPlane(in.Plane(PlaneAlpha), out.Plane(PlaneAlpha), in.Stride(PlaneAlpha), out.Stride(PlaneAlpha), width, h1, h2, bytes)
		return
	}
	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			v := readFloatSample(in.Plane(PlaneAlpha), in.Stride(PlaneAlpha), inWide, x, y)
			writeFloatSample(out.Plane(PlaneAlpha), out.Stride(PlaneAlpha), outWide, x, y, v)
		}
	}
}

// rgbPlaneOrder maps the (R, G, B) component order the matrix-derived
// coefficient tables (YUV2RGBCoeffs, RGB2YUVCoeffs, LRGB2LRGBCoeffsF) are
// built in to the planar GBR(A) layout spec.md section 3 names for the
// float-format side of a conversion.
var rgbPlaneOrder = [3]int{PlaneR, PlaneG, PlaneB}

// readFloatSample reads one component sample at (x, y) as a float64, from
// either a half-float plane (wide == false) or a single-float plane
// (wide == true).
func readFloatSample(plane []byte, stride int, wide bool, x, y int) float64 {
	if wide {
		bits := uint32(readSample(plane, stride, 4, x, y))
		return float64(math.Float32frombits(bits))
	}
	raw := readSample(plane, stride, 2, x, y)
	return float64(float16.Float16(uint16(raw)).Float32())
}

// writeFloatSample writes v as the plane's float width: half-float when
// wide is false, single-float when wide is true.
func writeFloatSample(plane []byte, stride int, wide bool, x, y int, v float64) {
	if wide {
		writeSample(plane, stride, 4, x, y, int32(math.Float32bits(float32(v))))
		return
	}
	writeSample(plane, stride, 2, x, y, int32(uint16(float16.Fromfloat32(float32(v)))))
}

// yuv2rgbFloatSlice implements the YUV(integer) -> RGB(float) half of the
// cross-family conversion path spec.md section 1 calls for ("optionally
// changing pixel layout") and section 8's round-trip scenario 1 exercises
// (YUV420P -> GBRPF32 -> YUV420P): it decodes YUV to nonlinear RGB exactly
// like integerSlice's step 1, then linearises/maps/delinearises through the
// closed-form Transfer functions the same way singleFloatSlice does, since
// one side is always a float format here and there is no integer LUT index
// to build against a YUV bit depth that varies per call.
func (e *Engine) yuv2rgbFloatSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	shift := chromaShift[plan.InSubsamplingIdx]
	inW := sampleWidth[plan.InDepthIdx]
	outWide := plan.OutFmt.Depth() == 32

	inSh := uint(plan.InFmt.Depth() - 1)
	inRnd := int64(1) << (inSh - 1)

	for y := h1; y < h2; y++ {
		cy := y >> shift[1]
		for x := 0; x < width; x++ {
			cx := x >> shift[0]
			yv := readSample(in.Plane(PlaneY), in.Stride(PlaneY), inW, x, y) - plan.YUVOffsetIn[0]
			uv := readSample(in.Plane(PlaneU), in.Stride(PlaneU), inW, cx, cy) - plan.YUVOffsetIn[1]
			vv := readSample(in.Plane(PlaneV), in.Stride(PlaneV), inW, cx, cy) - plan.YUVOffsetIn[2]
			src := [3]int32{yv, uv, vv}

			var nonlin [3]float64
			for n := 0; n < 3; n++ {
				acc := inRnd
				for m := 0; m < 3; m++ {
					acc += int64(plan.YUV2RGBCoeffs[n][m][0]) * int64(src[m])
				}
				nonlin[n] = float64(clipInt32ToInt16(acc>>inSh)) / rgbScale
			}

			var outv [3]float64
			if plan.RGB2RGBPassthrough {
				outv = nonlin
			} else {
				var lin [3]float64
				for n := 0; n < 3; n++ {
					lin[n] = plan.InTransfer.Linearise(nonlin[n])
				}

				mapped := lin
				if !plan.LRGB2LRGBPassthrough {
					for n := 0; n < 3; n++ {
						acc := 0.0
						for m := 0; m < 3; m++ {
							acc += plan.LRGB2LRGBCoeffsF[n][m] * lin[m]
						}
						mapped[n] = acc
					}
				}

				for n := 0; n < 3; n++ {
					outv[n] = plan.OutTransfer.Delinearise(mapped[n])
				}
			}

			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				writeFloatSample(out.Plane(p), out.Stride(p), outWide, x, y, outv[n])
			}
		}
	}
}

// rgbFloat2yuvSlice implements the RGB(float) -> YUV(integer) half of the
// cross-family conversion path: linearise/map/delinearise exactly like
// singleFloatSlice, then encode the result through RGB2YUVCoeffs exactly
// like integerSlice's step 5, including nearest-neighbour chroma downsample
// and optional Floyd-Steinberg-banding dither.
func (e *Engine) rgbFloat2yuvSlice(plan *Plan, in, out Frame, width, h1, h2 int) {
	shift := chromaShift[plan.OutSubsamplingIdx]
	outW := sampleWidth[plan.OutDepthIdx]
	inWide := plan.InFmt.Depth() == 32

	var dither *SliceDither
	if plan.Dither == DitherFSB {
		dither = NewSliceDither(width)
	}
	outSh := uint(29 - plan.OutFmt.Depth())
	outRnd := int64(1) << (outSh - 1)

	for y := h1; y < h2; y++ {
		for x := 0; x < width; x++ {
			var src [3]float64
			for n := 0; n < 3; n++ {
				p := rgbPlaneOrder[n]
				src[n] = readFloatSample(in.Plane(p), in.Stride(p), inWide, x, y)
			}

			nonlin := src
			if !plan.RGB2RGBPassthrough {
				var lin [3]float64
				for n := 0; n < 3; n++ {
					lin[n] = plan.InTransfer.Linearise(src[n])
				}

				mapped := lin
				if !plan.LRGB2LRGBPassthrough {
					for n := 0; n < 3; n++ {
						acc := 0.0
						for m := 0; m < 3; m++ {
							acc += plan.LRGB2LRGBCoeffsF[n][m] * lin[m]
						}
						mapped[n] = acc
					}
				}

				for n := 0; n < 3; n++ {
					nonlin[n] = plan.OutTransfer.Delinearise(mapped[n])
				}
			}

			var rgb [3]int32
			for n := 0; n < 3; n++ {
				rgb[n] = clipInt32ToInt16(int64(roundHalfAwayFromZero(nonlin[n] * rgbScale)))
			}

			chromaSample := x&((1<<shift[0])-1) == 0 && y&((1<<shift[1])-1) == 0
			for n := 0; n < 3; n++ {
				if n > 0 && !chromaSample {
					continue
				}
				acc := int64(0)
				for m := 0; m < 3; m++ {
					acc += int64(plan.RGB2YUVCoeffs[n][m][0]) * int64(rgb[m])
				}
				acc += int64(plan.YUVOffsetOut[n]) << outSh

				dx, drow := x, y&1
				if n > 0 {
					dx, drow = x>>shift[0], (y>>shift[1])&1
				}

				var v int32
				if plan.Dither == DitherFSB {
					v = fsbQuantize(dither, n, drow, dx, acc, outSh, plan.OutFmt.Depth())
				} else {
					v = clipDepth(int32((acc+outRnd)>>outSh), plan.OutFmt.Depth())
				}

				switch n {
				case 0:
					writeSample(out.Plane(PlaneY), out.Stride(PlaneY), outW, x, y, v)
				case 1:
					writeSample(out.Plane(PlaneU), out.Stride(PlaneU), outW, x>>shift[0], y>>shift[1], v)
				case 2:
					writeSample(out.Plane(PlaneV), out.Stride(PlaneV), outW, x>>shift[0], y>>shift[1], v)
				}
			}
		}
	}
}

// ConvertParallel is a host-side convenience wrapper, not part of the core's
// required surface (spec.md section 5): it partitions [0, height) into n
// contiguous slices aligned to chroma-row boundaries and runs Engine.
// ConvertSlice on each concurrently via golang.org/x/sync/errgroup, the same
// concurrency-helper dependency the pack's gometrics sibling package pulls
// in. Cancellation flows through ctx between slices; the core itself still
// has no cancellation points within a slice.
func ConvertParallel(ctx context.Context, e *Engine, plan *Plan, in, out Frame, width, height, n int) error {
	if n <= 1 {
		return e.ConvertSlice(plan, in, out, width, 0, height)
	}

	g, ctx := errgroup.WithContext(ctx)
	halfRows := (height + 1) / 2
	for j := 0; j < n; j++ {
		j := j
		h1 := 2 * (j * halfRows / n)
		h2 := 2 * ((j + 1) * halfRows / n)
		if h2 > height {
			h2 = height
		}
		if h1 >= h2 {
			continue
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return e.ConvertSlice(plan, in, out, width, h1, h2)
		})
	}
	return g.Wait()
}
