// Package pixfmtadapt adapts github.com/GreatValueCreamSoda/gopixfmts pixel
// format descriptors into govconv.PixelFormatDescriptor, so the core package
// never has to import a concrete format registry itself. This mirrors the
// adapter govship's own example/colorspace_parsing.go writes by hand against
// the same gopixfmts API (PixFmtDescGet, Component, Log2ChromaW/H, Flags).
package pixfmtadapt

import (
	"fmt"

	"github.com/GreatValueCreamSoda/gopixfmts"

	"github.com/GreatValueCreamSoda/govconv"
)

// descriptor wraps a resolved gopixfmts.PixFmtDesc.
type descriptor struct {
	inner gopixfmts.PixFmtDesc
	depth int
	alpha bool
	float bool
	rgb   bool
}

// FromGopixfmts resolves pf against the gopixfmts registry and adapts it
// into a govconv.PixelFormatDescriptor.
func FromGopixfmts(pf gopixfmts.PixelFormat) (govconv.PixelFormatDescriptor, error) {
	desc, err := gopixfmts.PixFmtDescGet(pf)
	if err != nil {
		return nil, fmt.Errorf("pixfmtadapt: resolve %v: %w", pf, err)
	}

	comp, err := desc.Component(0)
	if err != nil {
		return nil, fmt.Errorf("pixfmtadapt: component 0 of %s: %w", desc.Name(), err)
	}

	flags := desc.Flags()
	return &descriptor{
		inner: desc,
		depth: comp.Depth,
		alpha: flags&uint64(gopixfmts.PixFmtFlagAlpha) != 0,
		float: flags&uint64(gopixfmts.PixFmtFlagFloat) != 0,
		rgb:   flags&uint64(gopixfmts.PixFmtFlagRGB) != 0,
	}, nil
}

func (d *descriptor) Depth() int        { return d.depth }
func (d *descriptor) Log2ChromaW() int  { return d.inner.Log2ChromaW() }
func (d *descriptor) Log2ChromaH() int  { return d.inner.Log2ChromaH() }
func (d *descriptor) HasAlpha() bool    { return d.alpha }
func (d *descriptor) Float() bool       { return d.float }
func (d *descriptor) Name() string      { return d.inner.Name() }
func (d *descriptor) Family() govconv.ColorFamily {
	if d.rgb {
		return govconv.FamilyRGB
	}
	return govconv.FamilyYUV
}
